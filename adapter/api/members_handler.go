package api

import (
	"net/http"

	memberApp "github.com/felixgeelhaar/studio/internal/members/application"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
)

func (s *Server) registerMember(w http.ResponseWriter, r *http.Request) {
	var req RegisterMemberRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	cmd, err := req.command()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	member, err := s.members.Register(r.Context(), cmd)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberResponse(member))
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.members.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberResponse(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	member, err := s.members.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponse(member))
}

func (s *Server) deleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.members.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req AddGoalRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	target, err := sharedDomain.ParseDate(req.TargetDate)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	member, err := s.members.AddGoal(r.Context(), id, memberApp.AddGoalCommand{
		GoalType:    req.GoalType,
		Description: req.Description,
		TargetDate:  target,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberResponse(member))
}

func (s *Server) achieveGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	goalID, err := pathID(r, "goalID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	member, err := s.members.AchieveGoal(r.Context(), id, goalID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponse(member))
}

func (s *Server) upgradeMembership(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req UpgradeMembershipRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	validUntil, err := optionalDate(req.ValidUntil)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	member, err := s.members.UpgradeMembership(r.Context(), id, req.Tier, validUntil)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponse(member))
}
