package identity

import (
	"context"
	"math"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// BulkOperator applies suggestions to many template exercises at once
type BulkOperator struct {
	registry    *Registry
	suggestions *SuggestionEngine
	links       *LinkManager
	linkRepo    repositories.ExerciseLinkRepo
	events      events.Emitter
	logger      ectologger.Logger
}

// NewBulkOperator creates a bulk operator
func NewBulkOperator(deps Dependencies, registry *Registry, suggestions *SuggestionEngine, links *LinkManager) *BulkOperator {
	return &BulkOperator{
		registry:    registry,
		suggestions: suggestions,
		links:       links,
		linkRepo:    deps.Links,
		events:      deps.emitter(),
		logger:      deps.Logger,
	}
}

// BulkLinkSimilar links every unlinked, non-rejected entry scoring at least minimumSimilarity
// against the master. Entries below the threshold are left untouched. Only links confirmed by
// the store are counted.
func (b *BulkOperator) BulkLinkSimilar(ctx context.Context, ownerID, masterID string, minimumSimilarity float64) (*models.BulkLinkResult, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.BulkLinkSimilar")
	defer span.End()

	if err := repositories.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	if math.IsNaN(minimumSimilarity) || minimumSimilarity < 0 || minimumSimilarity > 1 {
		return nil, repositories.BadRequest("minimum_similarity must be between 0 and 1")
	}

	master, err := b.registry.GetMaster(ctx, ownerID, masterID)
	if err != nil {
		return nil, err
	}

	candidates, err := b.suggestions.candidates(ctx, ownerID, master, minimumSimilarity)
	if err != nil {
		return nil, asStorageError(err, "failed to scan unlinked template exercises")
	}

	linked := 0
	for _, candidate := range candidates {
		if link := b.links.upsert(ctx, ownerID, candidate.Item.ID, master.ID, "bulk"); !link.Synthetic() {
			linked++
		}
	}

	b.logger.WithContext(ctx).WithFields(map[string]any{
		"owner_id":           ownerID,
		"master_id":          master.ID,
		"minimum_similarity": minimumSimilarity,
		"candidates":         len(candidates),
		"linked":             linked,
	}).Info("bulk linked template exercises")

	if linked > 0 {
		b.events.Emit(ctx, events.IdentityEvent{
			EventType: events.ExerciseBulkLinked,
			OwnerID:   ownerID,
			MasterID:  master.ID,
			Count:     linked,
		})
	}
	return &models.BulkLinkResult{LinkedCount: linked}, nil
}

// BulkUnlinkAll removes every link pointing at the master and returns how many were removed.
// An unknown master removes nothing.
func (b *BulkOperator) BulkUnlinkAll(ctx context.Context, ownerID, masterID string) (*models.BulkUnlinkResult, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.BulkUnlinkAll")
	defer span.End()

	if err := repositories.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	removed, err := b.linkRepo.DeleteByMaster(ctx, ownerID, masterID)
	if err != nil {
		return nil, asStorageError(err, "failed to unlink master exercise %s", masterID)
	}

	if removed > 0 {
		b.events.Emit(ctx, events.IdentityEvent{
			EventType: events.ExerciseBulkUnlinked,
			OwnerID:   ownerID,
			MasterID:  masterID,
			Count:     removed,
		})
	}
	return &models.BulkUnlinkResult{UnlinkedCount: removed}, nil
}
