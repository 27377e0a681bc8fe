package api

import (
	"net/http"
	"strings"

	coachApp "github.com/felixgeelhaar/studio/internal/coaches/application"
	coachDomain "github.com/felixgeelhaar/studio/internal/coaches/domain"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
)

func (s *Server) registerCoach(w http.ResponseWriter, r *http.Request) {
	var req RegisterCoachRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	coach, err := s.coaches.Register(r.Context(), req.command())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCoachResponse(coach))
}

// listAvailableCoaches lists coaches with spare capacity, optionally
// filtered by ?specialization=.
func (s *Server) listAvailableCoaches(w http.ResponseWriter, r *http.Request) {
	var spec *coachDomain.Specialization
	if raw := r.URL.Query().Get("specialization"); raw != "" {
		parsed, err := coachDomain.ParseSpecialization(strings.ToUpper(raw))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		spec = &parsed
	}
	coaches, err := s.coaches.FindAvailable(r.Context(), spec)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCoachResponses(coaches))
}

// matchCoach returns the best coach for ?member_id=, or 404 when none fits.
func (s *Server) matchCoach(w http.ResponseWriter, r *http.Request) {
	memberID, err := parseID("member_id", r.URL.Query().Get("member_id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	coach, err := s.coaches.FindBestForMember(r.Context(), memberID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if coach == nil {
		writeAPIError(w, &APIError{
			Status:  http.StatusNotFound,
			Code:    ErrNotFound.Code,
			Message: "no available coach matches this member",
		})
		return
	}
	writeJSON(w, http.StatusOK, toCoachResponse(coach))
}

func (s *Server) getCoach(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	coach, err := s.coaches.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCoachResponse(coach))
}

func (s *Server) deleteCoach(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.coaches.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addCertification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req AddCertificationRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	issuedAt, err := sharedDomain.ParseDate(req.IssuedAt)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	expiresAt, err := optionalDate(req.ExpiresAt)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	coach, err := s.coaches.AddCertification(r.Context(), id, coachApp.AddCertificationCommand{
		Name:        req.Name,
		IssuingBody: req.IssuingBody,
		IssuedAt:    issuedAt,
		ExpiresAt:   expiresAt,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCoachResponse(coach))
}

func (s *Server) addAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req AddAvailabilityRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	coach, err := s.coaches.AddAvailabilitySlot(r.Context(), id, coachApp.AddAvailabilityCommand{
		Day:       req.Day,
		StartHour: req.StartHour,
		EndHour:   req.EndHour,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCoachResponse(coach))
}
