package identity

import (
	"context"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// LinkManager owns the links between template exercises and master exercises, and the sticky
// per-exercise rejection flag.
type LinkManager struct {
	registry *Registry
	entries  repositories.TemplateExerciseRepo
	links    repositories.ExerciseLinkRepo
	events   events.Emitter
	logger   ectologger.Logger
}

// NewLinkManager creates a link manager
func NewLinkManager(deps Dependencies, registry *Registry) *LinkManager {
	return &LinkManager{
		registry: registry,
		entries:  deps.Entries,
		links:    deps.Links,
		events:   deps.emitter(),
		logger:   deps.Logger,
	}
}

// LinkToMaster links the entry to the master, replacing any existing link of the entry. Both
// must belong to the owner; a failed ownership read is reported as NotFound.
//
// The write is best effort: when it fails the returned link is synthetic (empty ID) and
// reflects the requested pair.
func (m *LinkManager) LinkToMaster(ctx context.Context, ownerID, entryID, masterID string) (*models.ExerciseLink, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.LinkToMaster")
	defer span.End()

	if err := repositories.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	entry, err := m.entries.GetByID(ctx, ownerID, entryID)
	if err != nil {
		return nil, verified(err, "template exercise %s not found", entryID)
	}
	if _, err := m.registry.masters.GetByID(ctx, ownerID, masterID); err != nil {
		return nil, verified(err, "master exercise %s not found", masterID)
	}

	link := m.upsert(ctx, ownerID, entryID, masterID, "manual")
	if !link.Synthetic() && entry.LinkingRejected {
		m.clearRejection(ctx, ownerID, entryID)
	}
	return link, nil
}

// upsert writes the link for already verified ids, returning a synthetic link on failure
func (m *LinkManager) upsert(ctx context.Context, ownerID, entryID, masterID, source string) *models.ExerciseLink {
	link, err := m.links.Upsert(ctx, &models.ExerciseLink{
		OwnerID:            ownerID,
		TemplateExerciseID: entryID,
		MasterExerciseID:   masterID,
	})
	if err != nil || link == nil {
		log := m.logger.WithContext(ctx).WithFields(map[string]any{
			"owner_id":  ownerID,
			"entry_id":  entryID,
			"master_id": masterID,
		})
		if err != nil {
			log.WithError(err).Warn("link write failed, returning synthetic link")
		} else {
			log.Warn("link write returned no row, returning synthetic link")
		}
		metrics.RecordBestEffortFallback("link_to_master")
		return &models.ExerciseLink{
			OwnerID:            ownerID,
			TemplateExerciseID: entryID,
			MasterExerciseID:   masterID,
		}
	}

	metrics.RecordLinks(source, 1)
	m.events.Emit(ctx, events.IdentityEvent{
		EventType: events.ExerciseLinked,
		OwnerID:   ownerID,
		EntryID:   entryID,
		MasterID:  masterID,
	})
	return link
}

// upsertStrict writes the link for already verified ids and reports any failure
func (m *LinkManager) upsertStrict(ctx context.Context, ownerID, entryID, masterID, source string) (*models.ExerciseLink, error) {
	link, err := m.links.Upsert(ctx, &models.ExerciseLink{
		OwnerID:            ownerID,
		TemplateExerciseID: entryID,
		MasterExerciseID:   masterID,
	})
	if err != nil {
		return nil, asStorageError(err, "failed to link template exercise %s", entryID)
	}
	if link == nil || link.Synthetic() {
		return nil, repositories.StorageUnavailable("link for template exercise " + entryID + " was not stored")
	}
	metrics.RecordLinks(source, 1)
	return link, nil
}

func (m *LinkManager) clearRejection(ctx context.Context, ownerID, entryID string) {
	if err := m.entries.SetLinkingRejected(ctx, ownerID, entryID, false); err != nil {
		m.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"owner_id": ownerID,
			"entry_id": entryID,
		}).Warn("failed to clear linking rejection")
	}
}

// Unlink removes the entry's link. It succeeds whether or not a link existed.
func (m *LinkManager) Unlink(ctx context.Context, ownerID, entryID string) error {
	ctx, span := tracing.StartSpan(ctx, "identity.Unlink")
	defer span.End()

	if err := repositories.RequireOwner(ownerID); err != nil {
		return err
	}

	removed, err := m.links.DeleteByEntry(ctx, ownerID, entryID)
	if err != nil {
		m.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"owner_id": ownerID,
			"entry_id": entryID,
		}).Warn("failed to unlink template exercise")
		return nil
	}
	if removed > 0 {
		m.events.Emit(ctx, events.IdentityEvent{
			EventType: events.ExerciseUnlinked,
			OwnerID:   ownerID,
			EntryID:   entryID,
		})
	}
	return nil
}

// IsRejected returns the entry's rejection flag, false when the entry cannot be read
func (m *LinkManager) IsRejected(ctx context.Context, ownerID, entryID string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.IsRejected")
	defer span.End()

	if err := repositories.RequireOwner(ownerID); err != nil {
		return false, err
	}

	entry, err := m.entries.GetByID(ctx, ownerID, entryID)
	if err != nil {
		return false, nil
	}
	return entry.LinkingRejected, nil
}

// RejectLinking sets the entry's sticky rejection flag so suggestions skip it until a new link
// is accepted. Unlike linking, a failed flag write is returned to the caller.
func (m *LinkManager) RejectLinking(ctx context.Context, ownerID, entryID string) error {
	ctx, span := tracing.StartSpan(ctx, "identity.RejectLinking")
	defer span.End()

	if err := repositories.RequireOwner(ownerID); err != nil {
		return err
	}

	if _, err := m.entries.GetByID(ctx, ownerID, entryID); err != nil {
		return verified(err, "template exercise %s not found", entryID)
	}

	if err := m.entries.SetLinkingRejected(ctx, ownerID, entryID, true); err != nil {
		m.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"owner_id": ownerID,
			"entry_id": entryID,
		}).Error("failed to reject linking")
		return asStorageError(err, "failed to reject linking for template exercise %s", entryID)
	}
	return nil
}

// ResolveLink resolves the entry's link state: the link is looked up first and the master
// only when one exists.
func (m *LinkManager) ResolveLink(ctx context.Context, ownerID, entryID string) (models.LinkState, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.ResolveLink")
	defer span.End()

	if err := repositories.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	if _, err := m.entries.GetByID(ctx, ownerID, entryID); err != nil {
		return nil, asStorageError(err, "failed to get template exercise %s", entryID)
	}

	link, err := m.links.GetByEntry(ctx, ownerID, entryID)
	if repositories.IsNotFound(err) {
		return models.Unlinked{}, nil
	}
	if err != nil {
		return nil, asStorageError(err, "failed to get link for template exercise %s", entryID)
	}

	master, err := m.registry.masters.GetByID(ctx, ownerID, link.MasterExerciseID)
	if err != nil {
		return nil, asStorageError(err, "failed to get master exercise %s", link.MasterExerciseID)
	}
	return models.Linked{MasterID: master.ID, MasterName: master.Name}, nil
}

// GetLinksForTemplate returns one review row per exercise of the template, in template order
func (m *LinkManager) GetLinksForTemplate(ctx context.Context, ownerID, templateID string) ([]models.TemplateLinkStatus, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.GetLinksForTemplate")
	defer span.End()

	if err := repositories.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	entries, err := m.entries.ListByTemplate(ctx, ownerID, templateID)
	if err != nil {
		return nil, asStorageError(err, "failed to list template exercises")
	}
	if len(entries) == 0 {
		return []models.TemplateLinkStatus{}, nil
	}

	links, err := m.links.ListByEntries(ctx, ownerID, ectolinq.Map(entries, func(e models.TemplateExercise) string { return e.ID }))
	if err != nil {
		return nil, asStorageError(err, "failed to list exercise links")
	}

	masterNames := map[string]string{}
	if len(links) > 0 {
		masters, err := m.registry.masters.GetByIDs(ctx, ownerID, ectolinq.Map(links, func(l models.ExerciseLink) string { return l.MasterExerciseID }))
		if err != nil {
			return nil, asStorageError(err, "failed to get master exercises")
		}
		for _, master := range masters {
			masterNames[master.ID] = master.Name
		}
	}

	states := models.ResolveLinkStates(entries, links, masterNames)
	return ectolinq.Map(entries, func(e models.TemplateExercise) models.TemplateLinkStatus {
		return linkStatus(e, states[e.ID])
	}), nil
}

func linkStatus(entry models.TemplateExercise, state models.LinkState) models.TemplateLinkStatus {
	status := models.TemplateLinkStatus{EntryID: entry.ID, ExerciseName: entry.ExerciseName}
	switch s := state.(type) {
	case models.Linked:
		status.IsLinked = true
		status.MasterID = &s.MasterID
		status.MasterName = &s.MasterName
	case models.Unlinked:
	}
	return status
}
