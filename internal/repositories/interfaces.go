package repositories

import (
	"context"

	"github.com/Ramsey-B/fern/pkg/models"
)

// MasterExerciseRepo defines the storage operations on master exercises
type MasterExerciseRepo interface {
	GetByID(ctx context.Context, ownerID, id string) (*models.MasterExercise, error)
	GetByNormalizedName(ctx context.Context, ownerID, normalizedName string) (*models.MasterExercise, error)
	GetByIDs(ctx context.Context, ownerID string, ids []string) ([]models.MasterExercise, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.MasterExercise, error)
	// Upsert inserts the master or, when (owner, normalized name) already exists, returns the
	// stored row unchanged. inserted reports which of the two happened.
	Upsert(ctx context.Context, master *models.MasterExercise) (stored *models.MasterExercise, inserted bool, err error)
	// SearchPrefix pages through masters whose normalized name starts with query
	SearchPrefix(ctx context.Context, ownerID, query string, limit, offset int) ([]models.MasterExercise, error)
	// SearchContains pages through masters containing query anywhere but at the start
	SearchContains(ctx context.Context, ownerID, query string, limit, offset int) ([]models.MasterExercise, error)
}

// TemplateExerciseRepo defines the storage operations on template exercises
type TemplateExerciseRepo interface {
	GetByID(ctx context.Context, ownerID, id string) (*models.TemplateExercise, error)
	ListByTemplate(ctx context.Context, ownerID, templateID string) ([]models.TemplateExercise, error)
	ListUnlinked(ctx context.Context, ownerID string) ([]models.TemplateExercise, error)
	ListByMaster(ctx context.Context, ownerID, masterID string) ([]models.TemplateExercise, error)
	SetLinkingRejected(ctx context.Context, ownerID, id string, rejected bool) error
	ReplaceForTemplate(ctx context.Context, ownerID, templateID string, entries []models.TemplateExercise) ([]models.TemplateExercise, error)
	DeleteByTemplate(ctx context.Context, ownerID, templateID string) (int, error)
}

// ExerciseLinkRepo defines the storage operations on exercise links
type ExerciseLinkRepo interface {
	// Upsert creates the link or replaces the existing link of the same template exercise
	Upsert(ctx context.Context, link *models.ExerciseLink) (*models.ExerciseLink, error)
	GetByEntry(ctx context.Context, ownerID, entryID string) (*models.ExerciseLink, error)
	ListByEntries(ctx context.Context, ownerID string, entryIDs []string) ([]models.ExerciseLink, error)
	DeleteByEntry(ctx context.Context, ownerID, entryID string) (int, error)
	DeleteByMaster(ctx context.Context, ownerID, masterID string) (int, error)
}
