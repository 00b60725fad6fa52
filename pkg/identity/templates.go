package identity

import (
	"context"
	"strings"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// TemplateSync stores the exercise lists of workout templates. Saved exercises are linked to
// the master with the exact same normalized name, creating it if needed.
type TemplateSync struct {
	registry *Registry
	links    *LinkManager
	entries  repositories.TemplateExerciseRepo
	logger   ectologger.Logger
}

// NewTemplateSync creates a template sync
func NewTemplateSync(deps Dependencies, registry *Registry, links *LinkManager) *TemplateSync {
	return &TemplateSync{
		registry: registry,
		links:    links,
		entries:  deps.Entries,
		logger:   deps.Logger,
	}
}

// SaveTemplateExercises replaces the template's exercises with inputs and auto-links each new
// exercise. Auto-linking is best effort: exercises whose master or link could not be written
// are returned unlinked.
func (t *TemplateSync) SaveTemplateExercises(ctx context.Context, ownerID, templateID string, inputs []models.ExerciseInput) ([]models.TemplateLinkStatus, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.SaveTemplateExercises")
	defer span.End()

	if err := repositories.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(templateID) == "" {
		return nil, repositories.BadRequest("template id is required")
	}
	for _, input := range inputs {
		if normalizers.ExerciseName(input.Name) == "" {
			return nil, repositories.BadRequest("exercise name is required")
		}
	}

	saved, err := t.entries.ReplaceForTemplate(ctx, ownerID, templateID, ectolinq.Map(inputs, func(input models.ExerciseInput) models.TemplateExercise {
		return models.TemplateExercise{
			ExerciseName: strings.TrimSpace(input.Name),
			OrderIndex:   input.OrderIndex,
		}
	}))
	if err != nil {
		return nil, asStorageError(err, "failed to save template exercises")
	}

	statuses := make([]models.TemplateLinkStatus, 0, len(saved))
	for _, entry := range saved {
		statuses = append(statuses, t.autoLink(ctx, ownerID, entry))
	}
	return statuses, nil
}

func (t *TemplateSync) autoLink(ctx context.Context, ownerID string, entry models.TemplateExercise) models.TemplateLinkStatus {
	master, err := t.registry.CreateOrGetMaster(ctx, ownerID, entry.ExerciseName)
	if err != nil || master.Synthetic() {
		return linkStatus(entry, models.Unlinked{})
	}
	if link := t.links.upsert(ctx, ownerID, entry.ID, master.ID, "template"); link.Synthetic() {
		return linkStatus(entry, models.Unlinked{})
	}
	return linkStatus(entry, models.Linked{MasterID: master.ID, MasterName: master.Name})
}

// DeleteTemplate removes the template's exercises and, through them, their links
func (t *TemplateSync) DeleteTemplate(ctx context.Context, ownerID, templateID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.DeleteTemplate")
	defer span.End()

	if err := repositories.RequireOwner(ownerID); err != nil {
		return 0, err
	}

	deleted, err := t.entries.DeleteByTemplate(ctx, ownerID, templateID)
	if err != nil {
		return 0, asStorageError(err, "failed to delete template %s", templateID)
	}
	t.logger.WithContext(ctx).WithFields(map[string]any{
		"owner_id":    ownerID,
		"template_id": templateID,
		"deleted":     deleted,
	}).Info("deleted template exercises")
	return deleted, nil
}
