package application

import (
	"time"

	"github.com/felixgeelhaar/studio/internal/coaches/domain"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
)

// coachSnapshot is the cached value form of a coach.
type coachSnapshot struct {
	ID                 int64                   `json:"id"`
	FirstName          string                  `json:"first_name"`
	LastName           string                  `json:"last_name"`
	Email              string                  `json:"email"`
	Bio                string                  `json:"bio"`
	Tier               string                  `json:"tier"`
	Specializations    []string                `json:"specializations"`
	MaxClients         int                     `json:"max_clients"`
	CurrentClientCount int                     `json:"current_client_count"`
	Certifications     []certificationSnapshot `json:"certifications"`
	Availability       []slotSnapshot          `json:"availability"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
}

type certificationSnapshot struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	IssuingBody string     `json:"issuing_body"`
	IssuedAt    time.Time  `json:"issued_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type slotSnapshot struct {
	ID        int64  `json:"id"`
	Day       string `json:"day"`
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
}

func snapshotOf(c *domain.Coach) coachSnapshot {
	s := coachSnapshot{
		ID:                 c.ID(),
		FirstName:          c.Name().First(),
		LastName:           c.Name().Last(),
		Email:              c.Email().String(),
		Bio:                c.Bio(),
		Tier:               string(c.Tier()),
		Specializations:    make([]string, 0, len(c.Specializations())),
		MaxClients:         c.MaxClients(),
		CurrentClientCount: c.CurrentClientCount(),
		Certifications:     make([]certificationSnapshot, 0, len(c.Certifications())),
		Availability:       make([]slotSnapshot, 0, len(c.AvailabilitySlots())),
		CreatedAt:          c.CreatedAt(),
		UpdatedAt:          c.UpdatedAt(),
	}
	for _, spec := range c.Specializations() {
		s.Specializations = append(s.Specializations, string(spec))
	}
	for _, cert := range c.Certifications() {
		s.Certifications = append(s.Certifications, certificationSnapshot{
			ID:          cert.ID(),
			Name:        cert.Name(),
			IssuingBody: cert.IssuingBody(),
			IssuedAt:    cert.IssuedAt(),
			ExpiresAt:   cert.ExpiresAt(),
		})
	}
	for _, slot := range c.AvailabilitySlots() {
		s.Availability = append(s.Availability, slotSnapshot{
			ID:        slot.ID(),
			Day:       string(slot.Day()),
			StartHour: slot.StartHour(),
			EndHour:   slot.EndHour(),
		})
	}
	return s
}

// restore rebuilds a detached coach. Mutating it does not touch the cache entry.
func (s coachSnapshot) restore() (*domain.Coach, error) {
	name, err := sharedDomain.NewFullName(s.FirstName, s.LastName)
	if err != nil {
		return nil, err
	}
	email, err := sharedDomain.NewEmail(s.Email)
	if err != nil {
		return nil, err
	}

	specs := make([]domain.Specialization, 0, len(s.Specializations))
	for _, spec := range s.Specializations {
		specs = append(specs, domain.Specialization(spec))
	}
	certs := make([]*domain.Certification, 0, len(s.Certifications))
	for _, c := range s.Certifications {
		certs = append(certs, domain.RehydrateCertification(c.ID, c.Name, c.IssuingBody, c.IssuedAt, c.ExpiresAt))
	}
	slots := make([]*domain.AvailabilitySlot, 0, len(s.Availability))
	for _, a := range s.Availability {
		slots = append(slots, domain.RehydrateAvailabilitySlot(a.ID, domain.Weekday(a.Day), a.StartHour, a.EndHour))
	}

	return domain.RehydrateCoach(
		sharedDomain.RehydrateBaseEntity(s.ID, s.CreatedAt, s.UpdatedAt),
		name,
		email,
		s.Bio,
		domain.Tier(s.Tier),
		specs,
		s.MaxClients,
		s.CurrentClientCount,
		certs,
		slots,
	), nil
}
