package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
)

// Weekday is a day of the studio week.
type Weekday string

const (
	Monday    Weekday = "MON"
	Tuesday   Weekday = "TUE"
	Wednesday Weekday = "WED"
	Thursday  Weekday = "THU"
	Friday    Weekday = "FRI"
	Saturday  Weekday = "SAT"
	Sunday    Weekday = "SUN"
)

// IsValid checks if the weekday is known.
func (d Weekday) IsValid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	default:
		return false
	}
}

// ParseWeekday converts a string into a Weekday.
func ParseWeekday(value string) (Weekday, error) {
	day := Weekday(value)
	if !day.IsValid() {
		return "", sharedDomain.Invariantf("invalid weekday: %q", value)
	}
	return day, nil
}

// AvailabilitySlot is a recurring weekly window in whole hours.
type AvailabilitySlot struct {
	sharedDomain.BaseEntity
	day       Weekday
	startHour int
	endHour   int
}

// NewAvailabilitySlot requires 0 <= start < end <= 24.
func NewAvailabilitySlot(day Weekday, startHour, endHour int) (*AvailabilitySlot, error) {
	if !day.IsValid() {
		return nil, sharedDomain.Invariantf("invalid weekday: %q", day)
	}
	if startHour < 0 || startHour >= endHour || endHour > 24 {
		return nil, sharedDomain.Invariantf("invalid slot hours: start=%d, end=%d", startHour, endHour)
	}
	return &AvailabilitySlot{
		BaseEntity: sharedDomain.NewBaseEntity(),
		day:        day,
		startHour:  startHour,
		endHour:    endHour,
	}, nil
}

// RehydrateAvailabilitySlot recreates a slot from persisted state.
func RehydrateAvailabilitySlot(id int64, day Weekday, startHour, endHour int) *AvailabilitySlot {
	return &AvailabilitySlot{
		BaseEntity: sharedDomain.RehydrateBaseEntity(id, time.Time{}, time.Time{}),
		day:        day,
		startHour:  startHour,
		endHour:    endHour,
	}
}

func (s *AvailabilitySlot) Day() Weekday   { return s.day }
func (s *AvailabilitySlot) StartHour() int { return s.startHour }
func (s *AvailabilitySlot) EndHour() int   { return s.endHour }
