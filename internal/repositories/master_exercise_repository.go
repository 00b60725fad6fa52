package repositories

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const masterExercisesTable = "master_exercises"

var masterExerciseStruct = database.NewStruct(new(models.MasterExercise))

// upsertMasterQuery returns the winner's row when a concurrent insert for the same
// (owner_id, normalized_name) got there first. xmax = 0 only for freshly inserted rows.
const upsertMasterQuery = `
	INSERT INTO master_exercises (id, owner_id, name, normalized_name, created_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (owner_id, normalized_name) DO UPDATE SET normalized_name = EXCLUDED.normalized_name
	RETURNING id, owner_id, name, normalized_name, created_at, (xmax = 0) AS inserted
`

// MasterExerciseRepository handles database operations for master exercises
type MasterExerciseRepository struct {
	*Repository
}

// NewMasterExerciseRepository creates a new master exercise repository
func NewMasterExerciseRepository(db database.DB, logger ectologger.Logger) *MasterExerciseRepository {
	return &MasterExerciseRepository{
		Repository: NewRepository(db, logger),
	}
}

// GetByID retrieves a master exercise by ID (owner-scoped)
func (r *MasterExerciseRepository) GetByID(ctx context.Context, ownerID, id string) (*models.MasterExercise, error) {
	ctx, span := tracing.StartSpan(ctx, "MasterExerciseRepository.GetByID")
	defer span.End()

	if !validID(id) {
		return nil, NotFound("master exercise %s not found", id)
	}

	sb := masterExerciseStruct.SelectFrom(masterExercisesTable)
	sb.Where(sb.Equal("owner_id", ownerID), sb.Equal("id", id))

	query, args := sb.Build()
	var master models.MasterExercise
	if err := r.get(ctx, &master, "master exercise", id, query, args...); err != nil {
		return nil, err
	}
	return &master, nil
}

// GetByNormalizedName retrieves the owner's master exercise for a normalized name
func (r *MasterExerciseRepository) GetByNormalizedName(ctx context.Context, ownerID, normalizedName string) (*models.MasterExercise, error) {
	ctx, span := tracing.StartSpan(ctx, "MasterExerciseRepository.GetByNormalizedName")
	defer span.End()

	sb := masterExerciseStruct.SelectFrom(masterExercisesTable)
	sb.Where(sb.Equal("owner_id", ownerID), sb.Equal("normalized_name", normalizedName))

	query, args := sb.Build()
	var master models.MasterExercise
	if err := r.get(ctx, &master, "master exercise", normalizedName, query, args...); err != nil {
		return nil, err
	}
	return &master, nil
}

// GetByIDs retrieves the owner's master exercises among ids; unknown ids are skipped
func (r *MasterExerciseRepository) GetByIDs(ctx context.Context, ownerID string, ids []string) ([]models.MasterExercise, error) {
	ctx, span := tracing.StartSpan(ctx, "MasterExerciseRepository.GetByIDs")
	defer span.End()

	args := idsToAny(ids)
	if len(args) == 0 {
		return []models.MasterExercise{}, nil
	}

	sb := masterExerciseStruct.SelectFrom(masterExercisesTable)
	sb.Where(sb.Equal("owner_id", ownerID), sb.In("id", args...))

	query, queryArgs := sb.Build()
	masters := []models.MasterExercise{}
	if err := r.selectRows(ctx, &masters, "get master exercises by ids", query, queryArgs...); err != nil {
		return nil, err
	}
	return masters, nil
}

// ListByOwner retrieves every master exercise of the owner ordered by name
func (r *MasterExerciseRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.MasterExercise, error) {
	ctx, span := tracing.StartSpan(ctx, "MasterExerciseRepository.ListByOwner")
	defer span.End()

	sb := masterExerciseStruct.SelectFrom(masterExercisesTable)
	sb.Where(sb.Equal("owner_id", ownerID))
	sb.OrderBy("normalized_name", "id")

	query, args := sb.Build()
	masters := []models.MasterExercise{}
	if err := r.selectRows(ctx, &masters, "list master exercises", query, args...); err != nil {
		return nil, err
	}
	return masters, nil
}

// Upsert inserts a master exercise, or returns the existing row for the same normalized name
func (r *MasterExerciseRepository) Upsert(ctx context.Context, master *models.MasterExercise) (*models.MasterExercise, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "MasterExerciseRepository.Upsert")
	defer span.End()

	if master.ID == "" {
		master.ID = uuid.New().String()
	}

	var row struct {
		models.MasterExercise
		Inserted bool `db:"inserted"`
	}
	err := r.conn(ctx).GetContext(ctx, &row, upsertMasterQuery, master.ID, master.OwnerID, master.Name, master.NormalizedName)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"owner_id":        master.OwnerID,
			"normalized_name": master.NormalizedName,
		}).Error("failed to upsert master exercise")
		return nil, false, StorageUnavailable("failed to create master exercise")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"master_id": row.ID,
		"inserted":  row.Inserted,
	}).Debugf("Upserted %s", masterExercisesTable)
	return &row.MasterExercise, row.Inserted, nil
}

// SearchPrefix pages through masters whose normalized name starts with query
func (r *MasterExerciseRepository) SearchPrefix(ctx context.Context, ownerID, query string, limit, offset int) ([]models.MasterExercise, error) {
	ctx, span := tracing.StartSpan(ctx, "MasterExerciseRepository.SearchPrefix")
	defer span.End()

	pattern := database.EscapeLike(query) + "%"

	sb := masterExerciseStruct.SelectFrom(masterExercisesTable)
	sb.Where(sb.Equal("owner_id", ownerID), sb.Like("normalized_name", pattern))
	sb.OrderBy("normalized_name", "id")
	sb.Limit(limit).Offset(offset)

	sql, args := sb.Build()
	masters := []models.MasterExercise{}
	if err := r.selectRows(ctx, &masters, "search master exercises by prefix", sql, args...); err != nil {
		return nil, err
	}
	return masters, nil
}

// SearchContains pages through masters containing query anywhere except at the start
func (r *MasterExerciseRepository) SearchContains(ctx context.Context, ownerID, query string, limit, offset int) ([]models.MasterExercise, error) {
	ctx, span := tracing.StartSpan(ctx, "MasterExerciseRepository.SearchContains")
	defer span.End()

	escaped := database.EscapeLike(query)

	sb := masterExerciseStruct.SelectFrom(masterExercisesTable)
	sb.Where(
		sb.Equal("owner_id", ownerID),
		sb.Like("normalized_name", "%"+escaped+"%"),
		sb.NotLike("normalized_name", escaped+"%"),
	)
	sb.OrderBy("normalized_name", "id")
	sb.Limit(limit).Offset(offset)

	sql, args := sb.Build()
	masters := []models.MasterExercise{}
	if err := r.selectRows(ctx, &masters, "search master exercises by substring", sql, args...); err != nil {
		return nil, err
	}
	return masters, nil
}
