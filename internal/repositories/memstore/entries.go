package memstore

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/pkg/models"
)

// TemplateExerciseRepository is the in-memory template exercise repository
type TemplateExerciseRepository struct {
	store *Store
}

func (r *TemplateExerciseRepository) GetByID(ctx context.Context, ownerID, id string) (*models.TemplateExercise, error) {
	s := r.store
	err := s.enter("entries.GetByID")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	entry, ok := s.entries[id]
	if !ok || entry.OwnerID != ownerID {
		return nil, repositories.NotFound("template exercise %s not found", id)
	}
	return &entry, nil
}

func (r *TemplateExerciseRepository) ListByTemplate(ctx context.Context, ownerID, templateID string) ([]models.TemplateExercise, error) {
	s := r.store
	err := s.enter("entries.ListByTemplate")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	result := s.entriesWhere(func(e models.TemplateExercise) bool {
		return e.OwnerID == ownerID && e.TemplateID == templateID
	})
	slices.SortStableFunc(result, func(a, b models.TemplateExercise) int {
		return cmp.Compare(a.OrderIndex, b.OrderIndex)
	})
	return result, nil
}

func (r *TemplateExerciseRepository) ListUnlinked(ctx context.Context, ownerID string) ([]models.TemplateExercise, error) {
	s := r.store
	err := s.enter("entries.ListUnlinked")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.entriesWhere(func(e models.TemplateExercise) bool {
		_, linked := s.links[e.ID]
		return e.OwnerID == ownerID && !linked
	}), nil
}

func (r *TemplateExerciseRepository) ListByMaster(ctx context.Context, ownerID, masterID string) ([]models.TemplateExercise, error) {
	s := r.store
	err := s.enter("entries.ListByMaster")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.entriesWhere(func(e models.TemplateExercise) bool {
		link, linked := s.links[e.ID]
		return e.OwnerID == ownerID && linked && link.OwnerID == ownerID && link.MasterExerciseID == masterID
	}), nil
}

func (r *TemplateExerciseRepository) SetLinkingRejected(ctx context.Context, ownerID, id string, rejected bool) error {
	s := r.store
	err := s.enter("entries.SetLinkingRejected")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	entry, ok := s.entries[id]
	if !ok || entry.OwnerID != ownerID {
		return repositories.NotFound("template exercise %s not found", id)
	}
	entry.LinkingRejected = rejected
	s.entries[id] = entry
	return nil
}

func (r *TemplateExerciseRepository) ReplaceForTemplate(ctx context.Context, ownerID, templateID string, entries []models.TemplateExercise) ([]models.TemplateExercise, error) {
	s := r.store
	err := s.enter("entries.ReplaceForTemplate")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.deleteTemplate(ownerID, templateID)

	now := time.Now().UTC()
	result := make([]models.TemplateExercise, 0, len(entries))
	for _, entry := range entries {
		entry.ID = uuid.New().String()
		entry.OwnerID = ownerID
		entry.TemplateID = templateID
		entry.LinkingRejected = false
		entry.CreatedAt = now
		s.entries[entry.ID] = entry
		result = append(result, entry)
	}
	return result, nil
}

func (r *TemplateExerciseRepository) DeleteByTemplate(ctx context.Context, ownerID, templateID string) (int, error) {
	s := r.store
	err := s.enter("entries.DeleteByTemplate")
	defer s.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return s.deleteTemplate(ownerID, templateID), nil
}

// deleteTemplate removes a template's entries and cascades to their links
func (s *Store) deleteTemplate(ownerID, templateID string) int {
	deleted := 0
	for id, entry := range s.entries {
		if entry.OwnerID == ownerID && entry.TemplateID == templateID {
			delete(s.entries, id)
			delete(s.links, id)
			deleted++
		}
	}
	return deleted
}

func (s *Store) entriesWhere(keep func(models.TemplateExercise) bool) []models.TemplateExercise {
	result := []models.TemplateExercise{}
	for _, e := range s.entries {
		if keep(e) {
			result = append(result, e)
		}
	}
	slices.SortFunc(result, func(a, b models.TemplateExercise) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return result
}
