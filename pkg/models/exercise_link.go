package models

import "time"

// ExerciseLink records that a template exercise represents a master exercise.
// A template exercise has at most one link.
type ExerciseLink struct {
	ID                 string    `json:"id" db:"id"`
	OwnerID            string    `json:"owner_id" db:"owner_id"`
	TemplateExerciseID string    `json:"template_exercise_id" db:"template_exercise_id"`
	MasterExerciseID   string    `json:"master_exercise_id" db:"master_exercise_id"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the database table name
func (ExerciseLink) TableName() string {
	return "exercise_links"
}

// Synthetic reports whether the link was never confirmed by the store (best-effort result)
func (l *ExerciseLink) Synthetic() bool {
	return l.ID == ""
}

// LinkRequest links a template exercise to a master exercise
type LinkRequest struct {
	MasterID string `json:"master_id" validate:"required"`
}

// TemplateLinkStatus is the review row for one exercise of a template
type TemplateLinkStatus struct {
	EntryID      string  `json:"entry_id"`
	ExerciseName string  `json:"exercise_name"`
	MasterID     *string `json:"master_id,omitempty"`
	MasterName   *string `json:"master_name,omitempty"`
	IsLinked     bool    `json:"is_linked"`
}

// PotentialLink is an unlinked template exercise suggested for a master
type PotentialLink struct {
	TemplateExercise
	Similarity float64 `json:"similarity"`
}

// LinkingDetails is the planning view for a master exercise
type LinkingDetails struct {
	MasterName     string             `json:"master_name"`
	LinkedEntries  []TemplateExercise `json:"linked_entries"`
	PotentialLinks []PotentialLink    `json:"potential_links"`
}

// BulkLinkRequest links every sufficiently similar unlinked exercise to a master
type BulkLinkRequest struct {
	MinimumSimilarity *float64 `json:"minimum_similarity" validate:"required,gte=0,lte=1"`
}

// BulkLinkResult reports how many exercises were linked
type BulkLinkResult struct {
	LinkedCount int `json:"linked_count"`
}

// BulkUnlinkResult reports how many links were removed
type BulkUnlinkResult struct {
	UnlinkedCount int `json:"unlinked_count"`
}

// MigrationResult reports the outcome of linking pre-existing exercises
type MigrationResult struct {
	MigratedExercises      int `json:"migrated_exercises"`
	CreatedMasterExercises int `json:"created_master_exercises"`
	CreatedLinks           int `json:"created_links"`
}
