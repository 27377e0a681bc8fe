package api

import (
	"context"
	"net/http"

	planApp "github.com/felixgeelhaar/studio/internal/plans/application"
	planDomain "github.com/felixgeelhaar/studio/internal/plans/domain"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
)

func (s *Server) createPlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	start, err := sharedDomain.ParseDate(req.StartDate)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	end, err := sharedDomain.ParseDate(req.EndDate)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	plan, err := s.plans.CreatePlan(r.Context(), planApp.CreatePlanCommand{
		MemberID:  req.MemberID,
		CoachID:   req.CoachID,
		Name:      req.Name,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlanResponse(plan))
}

func (s *Server) listPlans(w http.ResponseWriter, r *http.Request) {
	memberID, err := parseID("member_id", r.URL.Query().Get("member_id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	plans, err := s.plans.ListByMember(r.Context(), memberID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, toPlanResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getPlan(w http.ResponseWriter, r *http.Request) {
	s.withPlan(w, r, s.plans.Get)
}

func (s *Server) activatePlan(w http.ResponseWriter, r *http.Request) {
	s.withPlan(w, r, s.plans.ActivatePlan)
}

func (s *Server) cancelPlan(w http.ResponseWriter, r *http.Request) {
	s.withPlan(w, r, s.plans.CancelPlan)
}

// withPlan resolves {id}, applies op and writes the resulting plan.
func (s *Server) withPlan(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, planID int64) (*planDomain.TrainingPlan, error)) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	plan, err := op(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanResponse(plan))
}

func (s *Server) getProgress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	pct, err := s.plans.GetProgress(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProgressResponse{PlanID: id, CompletionPct: pct})
}

func (s *Server) addSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req AddSessionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	cmd, err := req.command()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	// Catalogue lookups run outside the transaction so they never hold the
	// database write lock.
	exercises, err := s.plans.ResolveExercises(r.Context(), cmd.Exercises)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.transactional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		plan, err := s.plans.AddPlannedSession(r.Context(), id, cmd.Name, cmd.ScheduledDate, exercises)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPlanResponse(plan))
	})).ServeHTTP(w, r)
}

func (s *Server) completeSession(w http.ResponseWriter, r *http.Request) {
	planID, sessionID, err := sessionPath(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req CompleteSessionRequest
	if err := decodeJSON(r, &req, true); err != nil {
		s.fail(w, r, err)
		return
	}
	plan, err := s.plans.CompleteSession(r.Context(), planID, sessionID, req.Notes)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanResponse(plan))
}

func (s *Server) skipSession(w http.ResponseWriter, r *http.Request) {
	planID, sessionID, err := sessionPath(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	plan, err := s.plans.SkipSession(r.Context(), planID, sessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanResponse(plan))
}

func sessionPath(r *http.Request) (planID, sessionID int64, err error) {
	if planID, err = pathID(r, "id"); err != nil {
		return 0, 0, err
	}
	if sessionID, err = pathID(r, "sid"); err != nil {
		return 0, 0, err
	}
	return planID, sessionID, nil
}
