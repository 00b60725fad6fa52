package identity

import (
	"cmp"
	"context"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// SuggestionEngine ranks an owner's unlinked template exercises against a master. It never
// mutates state.
type SuggestionEngine struct {
	registry *Registry
	entries  repositories.TemplateExerciseRepo
	logger   ectologger.Logger
}

// NewSuggestionEngine creates a suggestion engine
func NewSuggestionEngine(deps Dependencies, registry *Registry) *SuggestionEngine {
	return &SuggestionEngine{
		registry: registry,
		entries:  deps.Entries,
		logger:   deps.Logger,
	}
}

// GetLinkingDetails returns the entries linked to the master and every other unlinked,
// non-rejected entry ranked by similarity to it. Failed candidate scans yield empty lists.
func (s *SuggestionEngine) GetLinkingDetails(ctx context.Context, ownerID, masterID string) (*models.LinkingDetails, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.GetLinkingDetails")
	defer span.End()

	if err := repositories.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	master, err := s.registry.GetMaster(ctx, ownerID, masterID)
	if err != nil {
		return nil, err
	}

	linked, err := s.entries.ListByMaster(ctx, ownerID, master.ID)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("master_id", master.ID).Warn("linked entry scan failed")
		metrics.RecordDegradedRead("linked_entries")
		linked = []models.TemplateExercise{}
	}

	candidates, err := s.candidates(ctx, ownerID, master, 0)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("master_id", master.ID).Warn("candidate scan failed")
		metrics.RecordDegradedRead("potential_links")
	}

	potential := make([]models.PotentialLink, 0, len(candidates))
	for _, c := range candidates {
		potential = append(potential, models.PotentialLink{TemplateExercise: c.Item, Similarity: c.Score})
	}

	return &models.LinkingDetails{
		MasterName:     master.Name,
		LinkedEntries:  linked,
		PotentialLinks: potential,
	}, nil
}

// candidates scores the owner's unlinked, non-rejected entries against the master's
// normalized name, keeping those at or above threshold. Ties are ordered by entry id.
func (s *SuggestionEngine) candidates(ctx context.Context, ownerID string, master *models.MasterExercise, threshold float64) ([]matching.Candidate[models.TemplateExercise], error) {
	unlinked, err := s.entries.ListUnlinked(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	open := ectolinq.Filter(unlinked, func(e models.TemplateExercise) bool {
		return !e.LinkingRejected
	})

	return matching.Rank(master.NormalizedName, open, matching.RankOptions[models.TemplateExercise]{
		Name: func(e models.TemplateExercise) string { return normalizers.ExerciseName(e.ExerciseName) },
		TieBreak: func(a, b models.TemplateExercise) int {
			return cmp.Compare(a.ID, b.ID)
		},
		Threshold: threshold,
	}), nil
}
