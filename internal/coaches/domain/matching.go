package domain

import (
	"sort"

	memberDomain "github.com/felixgeelhaar/studio/internal/members/domain"
)

// goalSpecializations maps what a member wants to the disciplines that serve it.
var goalSpecializations = map[memberDomain.GoalType][]Specialization{
	memberDomain.GoalLoseWeight:  {SpecCardio, SpecNutrition},
	memberDomain.GoalBuildMuscle: {SpecStrength, SpecCrossfit},
	memberDomain.GoalEndurance:   {SpecCardio, SpecCrossfit},
	memberDomain.GoalFlexibility: {SpecYoga},
}

// MatchingService pairs members with the coach best suited to their goals.
type MatchingService struct{}

// NewMatchingService creates a MatchingService.
func NewMatchingService() *MatchingService {
	return &MatchingService{}
}

// GoalSpecializations returns the union of disciplines implied by the member's goals.
func GoalSpecializations(member *memberDomain.Member) map[Specialization]struct{} {
	specs := make(map[Specialization]struct{})
	for _, goal := range member.Goals() {
		for _, s := range goalSpecializations[goal.Type()] {
			specs[s] = struct{}{}
		}
	}
	return specs
}

// FindBestCoach returns the coach with the most overlapping specializations,
// preferring the lighter client load on ties. It returns nil when no coach
// can take the member or none overlaps the member's goals.
func (s *MatchingService) FindBestCoach(member *memberDomain.Member, coaches []*Coach) *Coach {
	wanted := GoalSpecializations(member)
	tier := member.Membership().Tier()

	type candidate struct {
		coach   *Coach
		overlap int
	}
	candidates := make([]candidate, 0, len(coaches))
	for _, c := range coaches {
		if !c.CanAcceptClient(tier) {
			continue
		}
		overlap := 0
		for spec := range c.specializations {
			if _, ok := wanted[spec]; ok {
				overlap++
			}
		}
		if overlap > 0 {
			candidates = append(candidates, candidate{coach: c, overlap: overlap})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].overlap != candidates[j].overlap {
			return candidates[i].overlap > candidates[j].overlap
		}
		return candidates[i].coach.currentClientCount < candidates[j].coach.currentClientCount
	})
	return candidates[0].coach
}
