package models

import "time"

// TemplateExercise is one free-text exercise line of a workout template
type TemplateExercise struct {
	ID              string    `json:"id" db:"id"`
	OwnerID         string    `json:"owner_id" db:"owner_id"`
	TemplateID      string    `json:"template_id" db:"template_id"`
	ExerciseName    string    `json:"exercise_name" db:"exercise_name"`
	OrderIndex      int       `json:"order_index" db:"order_index"`
	LinkingRejected bool      `json:"linking_rejected" db:"linking_rejected"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the database table name
func (TemplateExercise) TableName() string {
	return "template_exercises"
}

// ExerciseInput is a single exercise line submitted when a template is saved
type ExerciseInput struct {
	Name       string `json:"name" validate:"required,max=200"`
	OrderIndex int    `json:"order_index" validate:"gte=0"`
}

// SaveTemplateExercisesRequest replaces the exercise list of a template
type SaveTemplateExercisesRequest struct {
	Exercises []ExerciseInput `json:"exercises" validate:"dive"`
}
