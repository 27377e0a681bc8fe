package domain

import (
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
)

// GoalType classifies what a member wants to achieve.
type GoalType string

const (
	GoalLoseWeight  GoalType = "LOSE_WEIGHT"
	GoalBuildMuscle GoalType = "BUILD_MUSCLE"
	GoalEndurance   GoalType = "ENDURANCE"
	GoalFlexibility GoalType = "FLEXIBILITY"
)

// IsValid checks if the goal type is known.
func (g GoalType) IsValid() bool {
	switch g {
	case GoalLoseWeight, GoalBuildMuscle, GoalEndurance, GoalFlexibility:
		return true
	default:
		return false
	}
}

// ParseGoalType converts a string into a GoalType.
func ParseGoalType(value string) (GoalType, error) {
	goalType := GoalType(value)
	if !goalType.IsValid() {
		return "", sharedDomain.Invariantf("invalid goal type: %q", value)
	}
	return goalType, nil
}

// FitnessGoal is owned by exactly one Member.
type FitnessGoal struct {
	sharedDomain.BaseEntity
	goalType    GoalType
	description string
	targetDate  time.Time
	achieved    bool
}

// NewFitnessGoal creates a goal whose target date lies after today.
func NewFitnessGoal(goalType GoalType, description string, targetDate, today time.Time) (*FitnessGoal, error) {
	if !goalType.IsValid() {
		return nil, sharedDomain.Invariantf("invalid goal type: %q", goalType)
	}
	target := sharedDomain.DateOf(targetDate)
	if !target.After(sharedDomain.DateOf(today)) {
		return nil, sharedDomain.Invariantf("goal target date %s must be in the future", sharedDomain.FormatDate(target))
	}
	return &FitnessGoal{
		BaseEntity:  sharedDomain.NewBaseEntity(),
		goalType:    goalType,
		description: strings.TrimSpace(description),
		targetDate:  target,
	}, nil
}

// RehydrateFitnessGoal recreates a goal from persisted state.
func RehydrateFitnessGoal(id int64, goalType GoalType, description string, targetDate time.Time, achieved bool) *FitnessGoal {
	return &FitnessGoal{
		BaseEntity:  sharedDomain.RehydrateBaseEntity(id, time.Time{}, time.Time{}),
		goalType:    goalType,
		description: description,
		targetDate:  sharedDomain.DateOf(targetDate),
		achieved:    achieved,
	}
}

func (g *FitnessGoal) Type() GoalType        { return g.goalType }
func (g *FitnessGoal) Description() string   { return g.description }
func (g *FitnessGoal) TargetDate() time.Time { return g.targetDate }
func (g *FitnessGoal) IsAchieved() bool      { return g.achieved }

func (g *FitnessGoal) markAchieved() {
	g.achieved = true
}
