package repositories

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const exerciseLinksTable = "exercise_links"

var exerciseLinkStruct = database.NewStruct(new(models.ExerciseLink))

// upsertLinkQuery keeps one link per template exercise; the last writer wins
const upsertLinkQuery = `
	INSERT INTO exercise_links (id, owner_id, template_exercise_id, master_exercise_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4, NOW(), NOW())
	ON CONFLICT (template_exercise_id) DO UPDATE
	SET master_exercise_id = EXCLUDED.master_exercise_id, owner_id = EXCLUDED.owner_id, updated_at = NOW()
	RETURNING id, owner_id, template_exercise_id, master_exercise_id, created_at, updated_at
`

// ExerciseLinkRepository handles database operations for exercise links
type ExerciseLinkRepository struct {
	*Repository
}

// NewExerciseLinkRepository creates a new exercise link repository
func NewExerciseLinkRepository(db database.DB, logger ectologger.Logger) *ExerciseLinkRepository {
	return &ExerciseLinkRepository{
		Repository: NewRepository(db, logger),
	}
}

// Upsert creates a link or replaces the link of the same template exercise
func (r *ExerciseLinkRepository) Upsert(ctx context.Context, link *models.ExerciseLink) (*models.ExerciseLink, error) {
	ctx, span := tracing.StartSpan(ctx, "ExerciseLinkRepository.Upsert")
	defer span.End()

	if link.ID == "" {
		link.ID = uuid.New().String()
	}

	var stored models.ExerciseLink
	err := r.conn(ctx).GetContext(ctx, &stored, upsertLinkQuery, link.ID, link.OwnerID, link.TemplateExerciseID, link.MasterExerciseID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"entry_id":  link.TemplateExerciseID,
			"master_id": link.MasterExerciseID,
		}).Error("failed to upsert exercise link")
		return nil, StorageUnavailable("failed to link exercise")
	}

	return &stored, nil
}

// GetByEntry retrieves the link of a template exercise
func (r *ExerciseLinkRepository) GetByEntry(ctx context.Context, ownerID, entryID string) (*models.ExerciseLink, error) {
	ctx, span := tracing.StartSpan(ctx, "ExerciseLinkRepository.GetByEntry")
	defer span.End()

	if !validID(entryID) {
		return nil, NotFound("exercise link for %s not found", entryID)
	}

	sb := exerciseLinkStruct.SelectFrom(exerciseLinksTable)
	sb.Where(sb.Equal("owner_id", ownerID), sb.Equal("template_exercise_id", entryID))

	query, args := sb.Build()
	var link models.ExerciseLink
	if err := r.get(ctx, &link, "exercise link for", entryID, query, args...); err != nil {
		return nil, err
	}
	return &link, nil
}

// ListByEntries retrieves the links of the given template exercises
func (r *ExerciseLinkRepository) ListByEntries(ctx context.Context, ownerID string, entryIDs []string) ([]models.ExerciseLink, error) {
	ctx, span := tracing.StartSpan(ctx, "ExerciseLinkRepository.ListByEntries")
	defer span.End()

	args := idsToAny(entryIDs)
	if len(args) == 0 {
		return []models.ExerciseLink{}, nil
	}

	sb := exerciseLinkStruct.SelectFrom(exerciseLinksTable)
	sb.Where(sb.Equal("owner_id", ownerID), sb.In("template_exercise_id", args...))

	query, queryArgs := sb.Build()
	links := []models.ExerciseLink{}
	if err := r.selectRows(ctx, &links, "list exercise links", query, queryArgs...); err != nil {
		return nil, err
	}
	return links, nil
}

// DeleteByEntry removes the link of a template exercise
func (r *ExerciseLinkRepository) DeleteByEntry(ctx context.Context, ownerID, entryID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "ExerciseLinkRepository.DeleteByEntry")
	defer span.End()

	if !validID(entryID) {
		return 0, nil
	}

	delb := database.NewDeleteBuilder()
	delb.DeleteFrom(exerciseLinksTable)
	delb.Where(delb.Equal("owner_id", ownerID), delb.Equal("template_exercise_id", entryID))

	query, args := delb.Build()
	return r.exec(ctx, "delete exercise link", query, args...)
}

// DeleteByMaster removes every link pointing at a master
func (r *ExerciseLinkRepository) DeleteByMaster(ctx context.Context, ownerID, masterID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "ExerciseLinkRepository.DeleteByMaster")
	defer span.End()

	if !validID(masterID) {
		return 0, nil
	}

	delb := database.NewDeleteBuilder()
	delb.DeleteFrom(exerciseLinksTable)
	delb.Where(delb.Equal("owner_id", ownerID), delb.Equal("master_exercise_id", masterID))

	query, args := delb.Build()
	return r.exec(ctx, "delete exercise links by master", query, args...)
}
