package api

import (
	"time"

	coachApp "github.com/felixgeelhaar/studio/internal/coaches/application"
	coachDomain "github.com/felixgeelhaar/studio/internal/coaches/domain"
	memberApp "github.com/felixgeelhaar/studio/internal/members/application"
	memberDomain "github.com/felixgeelhaar/studio/internal/members/domain"
	planApp "github.com/felixgeelhaar/studio/internal/plans/application"
	planDomain "github.com/felixgeelhaar/studio/internal/plans/domain"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
)

// Dates travel as YYYY-MM-DD strings.

type RegisterMemberRequest struct {
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	FitnessLevel   string  `json:"fitness_level"`
	MembershipTier string  `json:"membership_tier,omitempty"`
	ValidUntil     *string `json:"valid_until,omitempty"`
}

func (req RegisterMemberRequest) command() (memberApp.RegisterMemberCommand, error) {
	validUntil, err := optionalDate(req.ValidUntil)
	if err != nil {
		return memberApp.RegisterMemberCommand{}, err
	}
	return memberApp.RegisterMemberCommand{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		FitnessLevel:   req.FitnessLevel,
		MembershipTier: req.MembershipTier,
		ValidUntil:     validUntil,
	}, nil
}

type AddGoalRequest struct {
	GoalType    string `json:"goal_type"`
	Description string `json:"description"`
	TargetDate  string `json:"target_date"`
}

type UpgradeMembershipRequest struct {
	Tier       string  `json:"tier"`
	ValidUntil *string `json:"valid_until,omitempty"`
}

type RegisterCoachRequest struct {
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	Email           string   `json:"email"`
	Bio             string   `json:"bio"`
	Tier            string   `json:"tier"`
	Specializations []string `json:"specializations"`
	MaxClients      *int     `json:"max_clients,omitempty"`
}

func (req RegisterCoachRequest) command() coachApp.RegisterCoachCommand {
	return coachApp.RegisterCoachCommand{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Bio:             req.Bio,
		Tier:            req.Tier,
		Specializations: req.Specializations,
		MaxClients:      req.MaxClients,
	}
}

type AddCertificationRequest struct {
	Name        string  `json:"name"`
	IssuingBody string  `json:"issuing_body"`
	IssuedAt    string  `json:"issued_at"`
	ExpiresAt   *string `json:"expires_at,omitempty"`
}

type AddAvailabilityRequest struct {
	Day       string `json:"day"`
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
}

type CreatePlanRequest struct {
	MemberID  int64  `json:"member_id"`
	CoachID   int64  `json:"coach_id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ExerciseRequest is one exercise of a new session. Omitted volume fields
// take the defaults; an explicit zero is kept.
type ExerciseRequest struct {
	Name        string `json:"name"`
	Sets        *int   `json:"sets,omitempty"`
	Reps        *int   `json:"reps,omitempty"`
	RestSeconds *int   `json:"rest_seconds,omitempty"`
}

type AddSessionRequest struct {
	Name          string            `json:"name"`
	ScheduledDate string            `json:"scheduled_date"`
	Exercises     []ExerciseRequest `json:"exercises"`
}

func (req AddSessionRequest) command() (planApp.AddSessionCommand, error) {
	scheduled, err := sharedDomain.ParseDate(req.ScheduledDate)
	if err != nil {
		return planApp.AddSessionCommand{}, err
	}
	exercises := make([]planApp.ExerciseRequest, 0, len(req.Exercises))
	for _, e := range req.Exercises {
		exercises = append(exercises, planApp.ExerciseRequest{
			Name:        e.Name,
			Sets:        e.Sets,
			Reps:        e.Reps,
			RestSeconds: e.RestSeconds,
		})
	}
	return planApp.AddSessionCommand{
		Name:          req.Name,
		ScheduledDate: scheduled,
		Exercises:     exercises,
	}, nil
}

type CompleteSessionRequest struct {
	Notes *string `json:"notes,omitempty"`
}

type GoalResponse struct {
	ID          int64  `json:"id"`
	GoalType    string `json:"goal_type"`
	Description string `json:"description"`
	TargetDate  string `json:"target_date"`
	Achieved    bool   `json:"achieved"`
}

type MemberResponse struct {
	ID             int64          `json:"id"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	FitnessLevel   string         `json:"fitness_level"`
	MembershipTier string         `json:"membership_tier"`
	ValidUntil     string         `json:"valid_until"`
	ActivePlanID   *int64         `json:"active_plan_id"`
	Goals          []GoalResponse `json:"goals"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func toMemberResponse(m *memberDomain.Member) MemberResponse {
	resp := MemberResponse{
		ID:             m.ID(),
		FirstName:      m.Name().First(),
		LastName:       m.Name().Last(),
		Email:          m.Email().String(),
		Phone:          m.Phone().String(),
		FitnessLevel:   string(m.FitnessLevel()),
		MembershipTier: string(m.Membership().Tier()),
		ValidUntil:     sharedDomain.FormatDate(m.Membership().ValidUntil()),
		Goals:          make([]GoalResponse, 0, len(m.Goals())),
		CreatedAt:      m.CreatedAt(),
		UpdatedAt:      m.UpdatedAt(),
	}
	if planID, ok := m.ActivePlanID(); ok {
		resp.ActivePlanID = &planID
	}
	for _, g := range m.Goals() {
		resp.Goals = append(resp.Goals, GoalResponse{
			ID:          g.ID(),
			GoalType:    string(g.Type()),
			Description: g.Description(),
			TargetDate:  sharedDomain.FormatDate(g.TargetDate()),
			Achieved:    g.IsAchieved(),
		})
	}
	return resp
}

type CertificationResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	IssuingBody string  `json:"issuing_body"`
	IssuedAt    string  `json:"issued_at"`
	ExpiresAt   *string `json:"expires_at"`
}

type AvailabilityResponse struct {
	ID        int64  `json:"id"`
	Day       string `json:"day"`
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
}

type CoachResponse struct {
	ID                 int64                   `json:"id"`
	FirstName          string                  `json:"first_name"`
	LastName           string                  `json:"last_name"`
	Email              string                  `json:"email"`
	Bio                string                  `json:"bio"`
	Tier               string                  `json:"tier"`
	Specializations    []string                `json:"specializations"`
	MaxClients         int                     `json:"max_clients"`
	CurrentClientCount int                     `json:"current_client_count"`
	AtCapacity         bool                    `json:"at_capacity"`
	Certifications     []CertificationResponse `json:"certifications"`
	Availability       []AvailabilityResponse  `json:"availability"`
}

func toCoachResponse(c *coachDomain.Coach) CoachResponse {
	resp := CoachResponse{
		ID:                 c.ID(),
		FirstName:          c.Name().First(),
		LastName:           c.Name().Last(),
		Email:              c.Email().String(),
		Bio:                c.Bio(),
		Tier:               string(c.Tier()),
		Specializations:    make([]string, 0, len(c.Specializations())),
		MaxClients:         c.MaxClients(),
		CurrentClientCount: c.CurrentClientCount(),
		AtCapacity:         c.IsAtCapacity(),
		Certifications:     make([]CertificationResponse, 0, len(c.Certifications())),
		Availability:       make([]AvailabilityResponse, 0, len(c.AvailabilitySlots())),
	}
	for _, spec := range c.Specializations() {
		resp.Specializations = append(resp.Specializations, string(spec))
	}
	for _, cert := range c.Certifications() {
		cr := CertificationResponse{
			ID:          cert.ID(),
			Name:        cert.Name(),
			IssuingBody: cert.IssuingBody(),
			IssuedAt:    sharedDomain.FormatDate(cert.IssuedAt()),
		}
		if exp := cert.ExpiresAt(); exp != nil {
			formatted := sharedDomain.FormatDate(*exp)
			cr.ExpiresAt = &formatted
		}
		resp.Certifications = append(resp.Certifications, cr)
	}
	for _, slot := range c.AvailabilitySlots() {
		resp.Availability = append(resp.Availability, AvailabilityResponse{
			ID:        slot.ID(),
			Day:       string(slot.Day()),
			StartHour: slot.StartHour(),
			EndHour:   slot.EndHour(),
		})
	}
	return resp
}

func toCoachResponses(coaches []*coachDomain.Coach) []CoachResponse {
	out := make([]CoachResponse, 0, len(coaches))
	for _, c := range coaches {
		out = append(out, toCoachResponse(c))
	}
	return out
}

type ExerciseResponse struct {
	ExerciseID  string `json:"exercise_id"`
	Name        string `json:"name"`
	Sets        int    `json:"sets"`
	Reps        int    `json:"reps"`
	RestSeconds int    `json:"rest_seconds"`
}

type SessionResponse struct {
	ID            int64              `json:"id"`
	Name          string             `json:"name"`
	ScheduledDate string             `json:"scheduled_date"`
	Status        string             `json:"status"`
	CompletedAt   *time.Time         `json:"completed_at"`
	Notes         string             `json:"notes,omitempty"`
	Exercises     []ExerciseResponse `json:"exercises"`
}

type PlanResponse struct {
	ID        int64             `json:"id"`
	MemberID  int64             `json:"member_id"`
	CoachID   int64             `json:"coach_id"`
	Name      string            `json:"name"`
	Status    string            `json:"status"`
	StartDate string            `json:"start_date"`
	EndDate   string            `json:"end_date"`
	Sessions  []SessionResponse `json:"sessions"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func toPlanResponse(p *planDomain.TrainingPlan) PlanResponse {
	resp := PlanResponse{
		ID:        p.ID(),
		MemberID:  p.MemberID(),
		CoachID:   p.CoachID(),
		Name:      p.Name(),
		Status:    string(p.Status()),
		StartDate: sharedDomain.FormatDate(p.StartDate()),
		EndDate:   sharedDomain.FormatDate(p.EndDate()),
		Sessions:  make([]SessionResponse, 0, len(p.Sessions())),
		CreatedAt: p.CreatedAt(),
		UpdatedAt: p.UpdatedAt(),
	}
	for _, s := range p.Sessions() {
		sr := SessionResponse{
			ID:            s.ID(),
			Name:          s.Name(),
			ScheduledDate: sharedDomain.FormatDate(s.ScheduledDate()),
			Status:        string(s.Status()),
			CompletedAt:   s.CompletedAt(),
			Notes:         s.Notes(),
			Exercises:     make([]ExerciseResponse, 0, len(s.Exercises())),
		}
		for _, e := range s.Exercises() {
			sr.Exercises = append(sr.Exercises, ExerciseResponse{
				ExerciseID:  e.ExerciseID(),
				Name:        e.Name(),
				Sets:        e.Sets(),
				Reps:        e.Reps(),
				RestSeconds: e.RestSeconds(),
			})
		}
		resp.Sessions = append(resp.Sessions, sr)
	}
	return resp
}

type ProgressResponse struct {
	PlanID        int64   `json:"plan_id"`
	CompletionPct float64 `json:"completion_pct"`
}

func optionalDate(value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := sharedDomain.ParseDate(*value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
