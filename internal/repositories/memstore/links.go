package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/pkg/models"
)

// ExerciseLinkRepository is the in-memory exercise link repository
type ExerciseLinkRepository struct {
	store *Store
}

func (r *ExerciseLinkRepository) Upsert(ctx context.Context, link *models.ExerciseLink) (*models.ExerciseLink, error) {
	s := r.store
	err := s.enter("links.Upsert")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if _, ok := s.entries[link.TemplateExerciseID]; !ok {
		return nil, repositories.StorageUnavailable("failed to link exercise")
	}
	if _, ok := s.masters[link.MasterExerciseID]; !ok {
		return nil, repositories.StorageUnavailable("failed to link exercise")
	}

	now := time.Now().UTC()
	stored, exists := s.links[link.TemplateExerciseID]
	if !exists {
		stored = models.ExerciseLink{
			ID:                 link.ID,
			TemplateExerciseID: link.TemplateExerciseID,
			CreatedAt:          now,
		}
		if stored.ID == "" {
			stored.ID = uuid.New().String()
		}
	}
	stored.OwnerID = link.OwnerID
	stored.MasterExerciseID = link.MasterExerciseID
	stored.UpdatedAt = now
	s.links[link.TemplateExerciseID] = stored
	return &stored, nil
}

func (r *ExerciseLinkRepository) GetByEntry(ctx context.Context, ownerID, entryID string) (*models.ExerciseLink, error) {
	s := r.store
	err := s.enter("links.GetByEntry")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	link, ok := s.links[entryID]
	if !ok || link.OwnerID != ownerID {
		return nil, repositories.NotFound("exercise link for %s not found", entryID)
	}
	return &link, nil
}

func (r *ExerciseLinkRepository) ListByEntries(ctx context.Context, ownerID string, entryIDs []string) ([]models.ExerciseLink, error) {
	s := r.store
	err := s.enter("links.ListByEntries")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	result := []models.ExerciseLink{}
	for _, id := range entryIDs {
		if link, ok := s.links[id]; ok && link.OwnerID == ownerID {
			result = append(result, link)
		}
	}
	return result, nil
}

func (r *ExerciseLinkRepository) DeleteByEntry(ctx context.Context, ownerID, entryID string) (int, error) {
	s := r.store
	err := s.enter("links.DeleteByEntry")
	defer s.mu.Unlock()
	if err != nil {
		return 0, err
	}
	link, ok := s.links[entryID]
	if !ok || link.OwnerID != ownerID {
		return 0, nil
	}
	delete(s.links, entryID)
	return 1, nil
}

func (r *ExerciseLinkRepository) DeleteByMaster(ctx context.Context, ownerID, masterID string) (int, error) {
	s := r.store
	err := s.enter("links.DeleteByMaster")
	defer s.mu.Unlock()
	if err != nil {
		return 0, err
	}
	deleted := 0
	for entryID, link := range s.links {
		if link.OwnerID == ownerID && link.MasterExerciseID == masterID {
			delete(s.links, entryID)
			deleted++
		}
	}
	return deleted, nil
}
