package domain

import "math"

// ProgressService reports how far a member has come through a plan.
type ProgressService struct{}

// NewProgressService creates a ProgressService.
func NewProgressService() *ProgressService {
	return &ProgressService{}
}

// CompletionPct returns the share of done sessions as a percentage rounded to 2 decimals.
func (s *ProgressService) CompletionPct(plan *TrainingPlan) float64 {
	total := len(plan.Sessions())
	if total == 0 {
		return 0
	}
	done := 0
	for _, session := range plan.Sessions() {
		if session.IsDone() {
			done++
		}
	}
	pct := float64(done) / float64(total) * 100
	return math.Round(pct*100) / 100
}
