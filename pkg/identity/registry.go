package identity

import (
	"cmp"
	"context"
	"math"
	"strings"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Registry owns the canonical master exercises of each owner
type Registry struct {
	masters repositories.MasterExerciseRepo
	cache   MasterCache
	events  events.Emitter
	logger  ectologger.Logger
}

// NewRegistry creates a master registry
func NewRegistry(deps Dependencies) *Registry {
	return &Registry{
		masters: deps.Masters,
		cache:   deps.Cache,
		events:  deps.emitter(),
		logger:  deps.Logger,
	}
}

// CreateOrGetMaster returns the owner's master for the normalized rawName, creating it when
// none exists. The display name of the first creator wins. Concurrent callers racing on the
// same name all receive the single stored row.
//
// Writes are best effort: when the insert fails the returned record is synthetic (empty ID)
// and the error is nil.
func (r *Registry) CreateOrGetMaster(ctx context.Context, ownerID, rawName string) (*models.MasterExercise, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.CreateOrGetMaster")
	defer span.End()

	if err := repositories.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	normalized := normalizers.ExerciseName(rawName)
	if normalized == "" {
		return nil, repositories.BadRequest("name is required")
	}

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"owner_id":        ownerID,
		"normalized_name": normalized,
	})

	existing, err := r.masters.GetByNormalizedName(ctx, ownerID, normalized)
	if err == nil {
		return existing, nil
	}
	if !repositories.IsNotFound(err) {
		log.WithError(err).Warn("master lookup failed, attempting create")
	}

	master, _, err := r.insert(ctx, ownerID, rawName, normalized)
	if err == nil && master != nil && !master.Synthetic() {
		return master, nil
	}

	if err != nil {
		log.WithError(err).Warn("master create failed, returning synthetic master")
	} else {
		log.Warn("master create returned no row, returning synthetic master")
	}
	metrics.RecordBestEffortFallback("create_master")
	return &models.MasterExercise{
		OwnerID:        ownerID,
		Name:           strings.TrimSpace(rawName),
		NormalizedName: normalized,
	}, nil
}

// CreateStrict is CreateOrGetMaster without the best-effort fallback: any lookup or insert
// failure, or an insert returning no usable row, is an error. created reports whether this
// call inserted the row.
func (r *Registry) CreateStrict(ctx context.Context, ownerID, rawName string) (master *models.MasterExercise, created bool, err error) {
	ctx, span := tracing.StartSpan(ctx, "identity.CreateStrict")
	defer span.End()

	if err := repositories.RequireOwner(ownerID); err != nil {
		return nil, false, err
	}

	normalized := normalizers.ExerciseName(rawName)
	if normalized == "" {
		return nil, false, repositories.BadRequest("name is required")
	}

	existing, err := r.masters.GetByNormalizedName(ctx, ownerID, normalized)
	if err == nil {
		return existing, false, nil
	}
	if !repositories.IsNotFound(err) {
		return nil, false, asStorageError(err, "failed to look up master exercise %q", normalized)
	}

	master, created, err = r.insert(ctx, ownerID, rawName, normalized)
	if err != nil {
		return nil, false, asStorageError(err, "failed to create master exercise %q", normalized)
	}
	if master == nil || master.Synthetic() {
		return nil, false, repositories.StorageUnavailable("master exercise " + normalized + " was not stored")
	}
	return master, created, nil
}

// insert upserts the master and, on a real insert, invalidates the owner's cache and emits
// master.created.
func (r *Registry) insert(ctx context.Context, ownerID, rawName, normalized string) (*models.MasterExercise, bool, error) {
	stored, inserted, err := r.masters.Upsert(ctx, &models.MasterExercise{
		OwnerID:        ownerID,
		Name:           strings.TrimSpace(rawName),
		NormalizedName: normalized,
	})
	if err != nil {
		return nil, false, err
	}
	if inserted && stored != nil {
		r.invalidate(ctx, ownerID)
		metrics.MastersCreatedTotal.Inc()
		r.events.Emit(ctx, events.IdentityEvent{
			EventType: events.MasterCreated,
			OwnerID:   ownerID,
			MasterID:  stored.ID,
		})
		r.logger.WithContext(ctx).WithFields(map[string]any{
			"owner_id":  ownerID,
			"master_id": stored.ID,
			"name":      stored.Name,
		}).Info("created master exercise")
	}
	return stored, inserted, nil
}

// GetMaster returns one of the owner's masters
func (r *Registry) GetMaster(ctx context.Context, ownerID, masterID string) (*models.MasterExercise, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.GetMaster")
	defer span.End()

	if err := repositories.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	return r.masters.GetByID(ctx, ownerID, masterID)
}

// ListMasters returns every master of the owner ordered by normalized name
func (r *Registry) ListMasters(ctx context.Context, ownerID string) ([]models.MasterExercise, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.ListMasters")
	defer span.End()

	if err := repositories.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	var generation int64
	cacheable := false
	if r.cache != nil {
		if masters, ok := r.cache.GetMasters(ctx, ownerID); ok {
			metrics.RecordCacheLookup(true)
			return masters, nil
		}
		metrics.RecordCacheLookup(false)
		// read before the list so a write landing in between makes the fill a no-op
		generation, cacheable = r.cache.Generation(ctx, ownerID)
	}

	masters, err := r.masters.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, asStorageError(err, "failed to list master exercises")
	}
	if cacheable {
		r.cache.SetMasters(ctx, ownerID, generation, masters)
	}
	return masters, nil
}

// FindSimilarMasters scores rawName against every master of the owner and returns those at or
// above threshold, by descending score then name. A failed scan yields no matches.
func (r *Registry) FindSimilarMasters(ctx context.Context, ownerID, rawName string, threshold float64) ([]models.ScoredMaster, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.FindSimilarMasters")
	defer span.End()

	if err := repositories.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, repositories.BadRequest("threshold must be between 0 and 1")
	}

	masters, err := r.ListMasters(ctx, ownerID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Warn("similar master scan failed, returning no matches")
		metrics.RecordDegradedRead("find_similar_masters")
		return []models.ScoredMaster{}, nil
	}

	ranked := matching.Rank(normalizers.ExerciseName(rawName), masters, matching.RankOptions[models.MasterExercise]{
		Name:      func(m models.MasterExercise) string { return m.NormalizedName },
		TieBreak:  compareMasters,
		Threshold: threshold,
	})
	if len(ranked) == 0 {
		return []models.ScoredMaster{}, nil
	}
	return ectolinq.Map(ranked, func(c matching.Candidate[models.MasterExercise]) models.ScoredMaster {
		return models.ScoredMaster{MasterExercise: c.Item, Similarity: c.Score}
	}), nil
}

func compareMasters(a, b models.MasterExercise) int {
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func (r *Registry) invalidate(ctx context.Context, ownerID string) {
	if r.cache != nil {
		r.cache.Invalidate(ctx, ownerID)
	}
}
