// Package memstore is an in-memory implementation of the repository interfaces. It honors
// the same uniqueness and upsert contracts as the Postgres store and supports fault
// injection, which makes it the backing store for unit tests and local development.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/pkg/models"
)

// Store holds every entity behind a single mutex
type Store struct {
	mu      sync.Mutex
	masters map[string]models.MasterExercise
	entries map[string]models.TemplateExercise
	links   map[string]models.ExerciseLink // keyed by template exercise id

	faults map[string]error
	calls  map[string]int
}

// New creates an empty store
func New() *Store {
	return &Store{
		masters: make(map[string]models.MasterExercise),
		entries: make(map[string]models.TemplateExercise),
		links:   make(map[string]models.ExerciseLink),
		faults:  make(map[string]error),
		calls:   make(map[string]int),
	}
}

// Fail makes the named operation (e.g. "masters.Upsert") return err until cleared with nil
func (s *Store) Fail(operation string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, operation)
		return
	}
	s.faults[operation] = err
}

// Calls returns how many times the named operation was invoked
func (s *Store) Calls(operation string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[operation]
}

// TotalCalls returns the number of storage operations invoked so far
func (s *Store) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// enter locks the store, records the call and returns the injected fault, if any.
// Callers must unlock.
func (s *Store) enter(operation string) error {
	s.mu.Lock()
	s.calls[operation]++
	return s.faults[operation]
}

// Masters returns the master exercise repository view
func (s *Store) Masters() *MasterExerciseRepository {
	return &MasterExerciseRepository{store: s}
}

// Entries returns the template exercise repository view
func (s *Store) Entries() *TemplateExerciseRepository {
	return &TemplateExerciseRepository{store: s}
}

// Links returns the exercise link repository view
func (s *Store) Links() *ExerciseLinkRepository {
	return &ExerciseLinkRepository{store: s}
}

// AddEntry stores a template exercise as if its template had been saved
func (s *Store) AddEntry(ownerID, templateID, name string, orderIndex int) models.TemplateExercise {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := models.TemplateExercise{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		TemplateID:   templateID,
		ExerciseName: name,
		OrderIndex:   orderIndex,
		CreatedAt:    time.Now().UTC(),
	}
	s.entries[entry.ID] = entry
	return entry
}

// CountMasters returns how many masters an owner has for a normalized name
func (s *Store) CountMasters(ownerID, normalizedName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, m := range s.masters {
		if m.OwnerID == ownerID && m.NormalizedName == normalizedName {
			count++
		}
	}
	return count
}

// CountLinks returns how many links exist for a template exercise
func (s *Store) CountLinks(entryID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, l := range s.links {
		if l.TemplateExerciseID == entryID {
			count++
		}
	}
	return count
}

var (
	_ repositories.MasterExerciseRepo   = (*MasterExerciseRepository)(nil)
	_ repositories.TemplateExerciseRepo = (*TemplateExerciseRepository)(nil)
	_ repositories.ExerciseLinkRepo     = (*ExerciseLinkRepository)(nil)
)

// MasterExerciseRepository is the in-memory master exercise repository
type MasterExerciseRepository struct {
	store *Store
}

func (r *MasterExerciseRepository) GetByID(ctx context.Context, ownerID, id string) (*models.MasterExercise, error) {
	s := r.store
	err := s.enter("masters.GetByID")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	m, ok := s.masters[id]
	if !ok || m.OwnerID != ownerID {
		return nil, repositories.NotFound("master exercise %s not found", id)
	}
	return &m, nil
}

func (r *MasterExerciseRepository) GetByNormalizedName(ctx context.Context, ownerID, normalizedName string) (*models.MasterExercise, error) {
	s := r.store
	err := s.enter("masters.GetByNormalizedName")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if m, ok := s.findMaster(ownerID, normalizedName); ok {
		return &m, nil
	}
	return nil, repositories.NotFound("master exercise %s not found", normalizedName)
}

func (r *MasterExerciseRepository) GetByIDs(ctx context.Context, ownerID string, ids []string) ([]models.MasterExercise, error) {
	s := r.store
	err := s.enter("masters.GetByIDs")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	result := []models.MasterExercise{}
	for _, id := range ids {
		if m, ok := s.masters[id]; ok && m.OwnerID == ownerID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *MasterExerciseRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.MasterExercise, error) {
	s := r.store
	err := s.enter("masters.ListByOwner")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.mastersWhere(func(m models.MasterExercise) bool { return m.OwnerID == ownerID }), nil
}

func (r *MasterExerciseRepository) Upsert(ctx context.Context, master *models.MasterExercise) (*models.MasterExercise, bool, error) {
	s := r.store
	err := s.enter("masters.Upsert")
	defer s.mu.Unlock()
	if err != nil {
		return nil, false, err
	}
	if existing, ok := s.findMaster(master.OwnerID, master.NormalizedName); ok {
		return &existing, false, nil
	}
	stored := *master
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	stored.CreatedAt = time.Now().UTC()
	s.masters[stored.ID] = stored
	return &stored, true, nil
}

func (r *MasterExerciseRepository) SearchPrefix(ctx context.Context, ownerID, query string, limit, offset int) ([]models.MasterExercise, error) {
	s := r.store
	err := s.enter("masters.SearchPrefix")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	matches := s.mastersWhere(func(m models.MasterExercise) bool {
		return m.OwnerID == ownerID && strings.HasPrefix(m.NormalizedName, query)
	})
	return page(matches, limit, offset), nil
}

func (r *MasterExerciseRepository) SearchContains(ctx context.Context, ownerID, query string, limit, offset int) ([]models.MasterExercise, error) {
	s := r.store
	err := s.enter("masters.SearchContains")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	matches := s.mastersWhere(func(m models.MasterExercise) bool {
		return m.OwnerID == ownerID &&
			strings.Contains(m.NormalizedName, query) &&
			!strings.HasPrefix(m.NormalizedName, query)
	})
	return page(matches, limit, offset), nil
}

func (s *Store) findMaster(ownerID, normalizedName string) (models.MasterExercise, bool) {
	for _, m := range s.masters {
		if m.OwnerID == ownerID && m.NormalizedName == normalizedName {
			return m, true
		}
	}
	return models.MasterExercise{}, false
}

func (s *Store) mastersWhere(keep func(models.MasterExercise) bool) []models.MasterExercise {
	result := []models.MasterExercise{}
	for _, m := range s.masters {
		if keep(m) {
			result = append(result, m)
		}
	}
	slices.SortFunc(result, func(a, b models.MasterExercise) int {
		if c := cmp.Compare(a.NormalizedName, b.NormalizedName); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return result
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := min(len(items), offset+limit)
	return items[offset:end]
}
