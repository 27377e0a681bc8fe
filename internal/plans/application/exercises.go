package application

import "context"

// ExerciseInfo is the catalogue entry for an exercise.
type ExerciseInfo struct {
	ExerciseID string `json:"exercise_id"`
	Name       string `json:"name"`
}

// ExerciseLookup queries an external exercise catalogue.
// Implementations swallow transport failures: a failed search is an empty
// result and a failed detail lookup reports false.
type ExerciseLookup interface {
	SearchExercises(ctx context.Context, name string) []ExerciseInfo
	GetExercise(ctx context.Context, exerciseID string) (*ExerciseInfo, bool)
}
