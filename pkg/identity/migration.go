package identity

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Migrator links an owner's pre-existing template exercises to masters in one sweep
type Migrator struct {
	registry *Registry
	links    *LinkManager
	entries  repositories.TemplateExerciseRepo
	events   events.Emitter
	logger   ectologger.Logger
}

// NewMigrator creates a migrator
func NewMigrator(deps Dependencies, registry *Registry, links *LinkManager) *Migrator {
	return &Migrator{
		registry: registry,
		links:    links,
		entries:  deps.Entries,
		events:   deps.emitter(),
		logger:   deps.Logger,
	}
}

// MigrateExistingExercises links every unlinked entry of the owner to the master with the same
// normalized name, creating masters as needed. The sweep stops at the first failure; work
// done before it stays committed and the partial counts are logged.
func (m *Migrator) MigrateExistingExercises(ctx context.Context, ownerID string) (*models.MigrationResult, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.MigrateExistingExercises")
	defer span.End()

	if err := repositories.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	unlinked, err := m.entries.ListUnlinked(ctx, ownerID)
	if err != nil {
		return nil, asStorageError(err, "failed to list unlinked template exercises")
	}

	log := m.logger.WithContext(ctx).WithFields(map[string]any{
		"owner_id": ownerID,
		"entries":  len(unlinked),
	})

	result := &models.MigrationResult{}
	resolved := map[string]*models.MasterExercise{}
	for _, entry := range unlinked {
		normalized := normalizers.ExerciseName(entry.ExerciseName)
		if normalized == "" {
			continue
		}

		master, ok := resolved[normalized]
		if !ok {
			var created bool
			master, created, err = m.registry.CreateStrict(ctx, ownerID, entry.ExerciseName)
			if err != nil {
				log.WithError(err).WithField("entry_id", entry.ID).Errorf("migration stopped after %d exercises", result.MigratedExercises)
				return nil, err
			}
			if created {
				result.CreatedMasterExercises++
			}
			resolved[normalized] = master
		}

		if _, err := m.links.upsertStrict(ctx, ownerID, entry.ID, master.ID, "migration"); err != nil {
			log.WithError(err).WithField("entry_id", entry.ID).Errorf("migration stopped after %d exercises", result.MigratedExercises)
			return nil, err
		}
		result.CreatedLinks++
		result.MigratedExercises++
	}

	log.WithFields(map[string]any{
		"migrated":        result.MigratedExercises,
		"created_masters": result.CreatedMasterExercises,
		"created_links":   result.CreatedLinks,
	}).Info("migrated existing exercises")

	if result.MigratedExercises > 0 {
		m.events.Emit(ctx, events.IdentityEvent{
			EventType: events.ExerciseMigrated,
			OwnerID:   ownerID,
			Count:     result.MigratedExercises,
		})
	}
	return result, nil
}
