package models

import "time"

// MasterExercise is the canonical identity of an exercise for one owner
type MasterExercise struct {
	ID             string    `json:"id" db:"id"`
	OwnerID        string    `json:"owner_id" db:"owner_id"`
	Name           string    `json:"name" db:"name"`
	NormalizedName string    `json:"normalized_name" db:"normalized_name"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the database table name
func (MasterExercise) TableName() string {
	return "master_exercises"
}

// Synthetic reports whether the record was never persisted (best-effort result)
func (m *MasterExercise) Synthetic() bool {
	return m.ID == ""
}

// ScoredMaster is a master exercise annotated with its similarity to a query name
type ScoredMaster struct {
	MasterExercise
	Similarity float64 `json:"similarity"`
}

// MasterPage is one page of a master exercise search
type MasterPage struct {
	Items      []MasterExercise `json:"items"`
	NextCursor *string          `json:"next_cursor"`
}

// CreateMasterRequest is the request to create or fetch a master exercise by name
type CreateMasterRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}
