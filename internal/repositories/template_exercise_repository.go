package repositories

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const templateExercisesTable = "template_exercises"

var (
	templateExerciseStruct  = database.NewStruct(new(models.TemplateExercise))
	templateExerciseColumns = []string{
		"te.id", "te.owner_id", "te.template_id", "te.exercise_name",
		"te.order_index", "te.linking_rejected", "te.created_at",
	}
)

// TemplateExerciseRepository handles database operations for template exercises
type TemplateExerciseRepository struct {
	*Repository
}

// NewTemplateExerciseRepository creates a new template exercise repository
func NewTemplateExerciseRepository(db database.DB, logger ectologger.Logger) *TemplateExerciseRepository {
	return &TemplateExerciseRepository{
		Repository: NewRepository(db, logger),
	}
}

// GetByID retrieves a template exercise by ID (owner-scoped)
func (r *TemplateExerciseRepository) GetByID(ctx context.Context, ownerID, id string) (*models.TemplateExercise, error) {
	ctx, span := tracing.StartSpan(ctx, "TemplateExerciseRepository.GetByID")
	defer span.End()

	if !validID(id) {
		return nil, NotFound("template exercise %s not found", id)
	}

	sb := templateExerciseStruct.SelectFrom(templateExercisesTable)
	sb.Where(sb.Equal("owner_id", ownerID), sb.Equal("id", id))

	query, args := sb.Build()
	var entry models.TemplateExercise
	if err := r.get(ctx, &entry, "template exercise", id, query, args...); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListByTemplate retrieves the exercises of a template in order
func (r *TemplateExerciseRepository) ListByTemplate(ctx context.Context, ownerID, templateID string) ([]models.TemplateExercise, error) {
	ctx, span := tracing.StartSpan(ctx, "TemplateExerciseRepository.ListByTemplate")
	defer span.End()

	sb := templateExerciseStruct.SelectFrom(templateExercisesTable)
	sb.Where(sb.Equal("owner_id", ownerID), sb.Equal("template_id", templateID))
	sb.OrderBy("order_index", "id")

	query, args := sb.Build()
	entries := []models.TemplateExercise{}
	if err := r.selectRows(ctx, &entries, "list template exercises", query, args...); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListUnlinked retrieves every exercise of the owner that has no link
func (r *TemplateExerciseRepository) ListUnlinked(ctx context.Context, ownerID string) ([]models.TemplateExercise, error) {
	ctx, span := tracing.StartSpan(ctx, "TemplateExerciseRepository.ListUnlinked")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(templateExerciseColumns...)
	sb.From("template_exercises te")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "exercise_links el", "el.template_exercise_id = te.id")
	sb.Where(sb.Equal("te.owner_id", ownerID), sb.IsNull("el.id"))
	sb.OrderBy("te.id")

	query, args := sb.Build()
	entries := []models.TemplateExercise{}
	if err := r.selectRows(ctx, &entries, "list unlinked template exercises", query, args...); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListByMaster retrieves the owner's exercises currently linked to a master
func (r *TemplateExerciseRepository) ListByMaster(ctx context.Context, ownerID, masterID string) ([]models.TemplateExercise, error) {
	ctx, span := tracing.StartSpan(ctx, "TemplateExerciseRepository.ListByMaster")
	defer span.End()

	if !validID(masterID) {
		return []models.TemplateExercise{}, nil
	}

	sb := database.NewSelectBuilder()
	sb.Select(templateExerciseColumns...)
	sb.From("template_exercises te")
	sb.Join("exercise_links el", "el.template_exercise_id = te.id")
	sb.Where(sb.Equal("te.owner_id", ownerID), sb.Equal("el.owner_id", ownerID), sb.Equal("el.master_exercise_id", masterID))
	sb.OrderBy("te.id")

	query, args := sb.Build()
	entries := []models.TemplateExercise{}
	if err := r.selectRows(ctx, &entries, "list template exercises by master", query, args...); err != nil {
		return nil, err
	}
	return entries, nil
}

// SetLinkingRejected sets the sticky rejection flag of an exercise
func (r *TemplateExerciseRepository) SetLinkingRejected(ctx context.Context, ownerID, id string, rejected bool) error {
	ctx, span := tracing.StartSpan(ctx, "TemplateExerciseRepository.SetLinkingRejected")
	defer span.End()

	if !validID(id) {
		return NotFound("template exercise %s not found", id)
	}

	ub := database.NewUpdateBuilder()
	ub.Update(templateExercisesTable)
	ub.Set(ub.Assign("linking_rejected", rejected))
	ub.Where(ub.Equal("owner_id", ownerID), ub.Equal("id", id))

	query, args := ub.Build()
	rows, err := r.exec(ctx, "update template exercise rejection", query, args...)
	if err != nil {
		return err
	}
	if rows == 0 {
		return NotFound("template exercise %s not found", id)
	}
	return nil
}

// ReplaceForTemplate deletes the template's exercises and inserts entries in their place
func (r *TemplateExerciseRepository) ReplaceForTemplate(ctx context.Context, ownerID, templateID string, entries []models.TemplateExercise) (result []models.TemplateExercise, err error) {
	ctx, span := tracing.StartSpan(ctx, "TemplateExerciseRepository.ReplaceForTemplate")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, StorageUnavailable("failed to replace template exercises")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = r.DeleteByTemplate(ctx, ownerID, templateID); err != nil {
		return nil, err
	}

	result = make([]models.TemplateExercise, 0, len(entries))
	if len(entries) > 0 {
		now := time.Now().UTC()
		ib := database.NewInsertBuilder()
		ib.InsertInto(templateExercisesTable)
		ib.Cols("id", "owner_id", "template_id", "exercise_name", "order_index", "linking_rejected", "created_at")
		for _, entry := range entries {
			entry.ID = uuid.New().String()
			entry.OwnerID = ownerID
			entry.TemplateID = templateID
			entry.LinkingRejected = false
			entry.CreatedAt = now
			ib.Values(entry.ID, entry.OwnerID, entry.TemplateID, entry.ExerciseName, entry.OrderIndex, entry.LinkingRejected, entry.CreatedAt)
			result = append(result, entry)
		}

		query, args := ib.Build()
		if _, err = r.exec(ctx, "insert template exercises", query, args...); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, StorageUnavailable("failed to replace template exercises")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"template_id": templateID,
		"count":       len(result),
	}).Debugf("Replaced %s", templateExercisesTable)
	return result, nil
}

// DeleteByTemplate removes every exercise of a template; their links cascade
func (r *TemplateExerciseRepository) DeleteByTemplate(ctx context.Context, ownerID, templateID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "TemplateExerciseRepository.DeleteByTemplate")
	defer span.End()

	delb := database.NewDeleteBuilder()
	delb.DeleteFrom(templateExercisesTable)
	delb.Where(delb.Equal("owner_id", ownerID), delb.Equal("template_id", templateID))

	query, args := delb.Build()
	return r.exec(ctx, "delete template exercises", query, args...)
}
