package domain

import sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"

// Volume used for a requested exercise that leaves a field out.
const (
	DefaultSets        = 3
	DefaultReps        = 10
	DefaultRestSeconds = 60
)

// PlannedExercise is an exercise prescribed for a session.
type PlannedExercise struct {
	exerciseID  string
	name        string
	sets        int
	reps        int
	restSeconds int
}

// NewPlannedExercise creates a planned exercise with the given volume.
// Zero is kept as given, so an exercise can be planned without rest.
func NewPlannedExercise(exerciseID, name string, sets, reps, restSeconds int) (PlannedExercise, error) {
	switch {
	case sets < 0:
		return PlannedExercise{}, sharedDomain.Invariantf("%s: sets cannot be negative (%d)", name, sets)
	case reps < 0:
		return PlannedExercise{}, sharedDomain.Invariantf("%s: reps cannot be negative (%d)", name, reps)
	case restSeconds < 0:
		return PlannedExercise{}, sharedDomain.Invariantf("%s: rest cannot be negative (%ds)", name, restSeconds)
	}
	return RehydratePlannedExercise(exerciseID, name, sets, reps, restSeconds), nil
}

// RehydratePlannedExercise rebuilds a stored exercise without validation.
func RehydratePlannedExercise(exerciseID, name string, sets, reps, restSeconds int) PlannedExercise {
	return PlannedExercise{
		exerciseID:  exerciseID,
		name:        name,
		sets:        sets,
		reps:        reps,
		restSeconds: restSeconds,
	}
}

// WithCatalogueEntry returns the exercise bound to a catalogue id and name.
func (e PlannedExercise) WithCatalogueEntry(exerciseID, name string) PlannedExercise {
	e.exerciseID = exerciseID
	e.name = name
	return e
}

func (e PlannedExercise) ExerciseID() string { return e.exerciseID }
func (e PlannedExercise) Name() string       { return e.name }
func (e PlannedExercise) Sets() int          { return e.sets }
func (e PlannedExercise) Reps() int          { return e.reps }
func (e PlannedExercise) RestSeconds() int   { return e.restSeconds }
