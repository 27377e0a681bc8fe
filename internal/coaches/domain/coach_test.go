package domain

import (
	"testing"
	"time"

	memberDomain "github.com/felixgeelhaar/studio/internal/members/domain"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func newTestCoach(t *testing.T, tier Tier, maxClients int, specs ...Specialization) *Coach {
	t.Helper()
	name, err := sharedDomain.NewFullName("Marek", "Kowalski")
	require.NoError(t, err)
	email, err := sharedDomain.NewEmail("marek@studio.com")
	require.NoError(t, err)
	c, err := RegisterCoach(name, email, "ex-powerlifter", tier, specs, maxClients)
	require.NoError(t, err)
	return c
}

func TestRegisterCoach(t *testing.T) {
	c := newTestCoach(t, TierStandard, 5, SpecYoga, SpecStrength, SpecYoga)

	assert.Equal(t, "Marek Kowalski", c.Name().Full())
	assert.Equal(t, []Specialization{SpecStrength, SpecYoga}, c.Specializations())
	assert.Equal(t, 5, c.MaxClients())
	assert.Equal(t, 0, c.CurrentClientCount())

	events := c.DomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, RoutingKeyCoachRegistered, events[0].RoutingKey())
}

func TestRegisterCoach_BindsIDOnAssign(t *testing.T) {
	c := newTestCoach(t, TierStandard, 5, SpecCardio)
	c.AssignID(7)

	event, ok := c.DomainEvents()[0].(*CoachRegistered)
	require.True(t, ok)
	assert.Equal(t, int64(7), event.AggregateID())
	assert.Equal(t, int64(7), event.CoachID)
}

func TestRegisterCoach_Validation(t *testing.T) {
	name, _ := sharedDomain.NewFullName("Marek", "Kowalski")
	email, _ := sharedDomain.NewEmail("marek@studio.com")

	_, err := RegisterCoach(name, email, "", TierStandard, nil, -1)
	assert.ErrorIs(t, err, ErrNegativeCapacity)

	_, err = RegisterCoach(name, email, "", Tier("GOLD"), nil, 1)
	assert.True(t, sharedDomain.IsInvariantViolation(err))

	_, err = RegisterCoach(name, email, "", TierStandard, []Specialization{"PILATES"}, 1)
	assert.True(t, sharedDomain.IsInvariantViolation(err))
}

func TestCoach_AcceptClientCapacity(t *testing.T) {
	c := newTestCoach(t, TierStandard, 1, SpecCardio)

	require.NoError(t, c.AcceptClient(memberDomain.TierFree))
	assert.True(t, c.IsAtCapacity())
	assert.ErrorIs(t, c.AcceptClient(memberDomain.TierFree), ErrCoachAtCapacity)
	assert.Equal(t, 1, c.CurrentClientCount())
}

func TestCoach_ZeroCapacityNeverAccepts(t *testing.T) {
	c := newTestCoach(t, TierStandard, 0, SpecCardio)

	assert.False(t, c.CanAcceptClient(memberDomain.TierVIP))
	assert.ErrorIs(t, c.AcceptClient(memberDomain.TierVIP), ErrCoachAtCapacity)
}

func TestCoach_VIPOnlyAcceptsVIP(t *testing.T) {
	c := newTestCoach(t, TierVIP, 3, SpecYoga)

	assert.False(t, c.CanAcceptClient(memberDomain.TierFree))
	assert.False(t, c.CanAcceptClient(memberDomain.TierPremium))
	assert.True(t, c.CanAcceptClient(memberDomain.TierVIP))
	assert.ErrorIs(t, c.AcceptClient(memberDomain.TierPremium), ErrVIPOnly)
	assert.NoError(t, c.AcceptClient(memberDomain.TierVIP))
}

func TestCoach_ReleaseClientNeverNegative(t *testing.T) {
	c := newTestCoach(t, TierStandard, 2, SpecCardio)
	require.NoError(t, c.AcceptClient(memberDomain.TierFree))

	c.ReleaseClient()
	c.ReleaseClient()
	assert.Equal(t, 0, c.CurrentClientCount())
}

func TestCertification_IsValid(t *testing.T) {
	expiry := today
	cert, err := NewCertification("ACE", "American Council", today.AddDate(-1, 0, 0), &expiry)
	require.NoError(t, err)

	assert.True(t, cert.IsValid(today))
	assert.True(t, cert.IsValid(today.AddDate(0, 0, -10)))
	assert.False(t, cert.IsValid(today.AddDate(0, 0, 1)))

	open, err := NewCertification("NASM", "", today, nil)
	require.NoError(t, err)
	assert.True(t, open.IsValid(today.AddDate(50, 0, 0)))
}

func TestCertification_Validation(t *testing.T) {
	_, err := NewCertification("  ", "", today, nil)
	assert.True(t, sharedDomain.IsInvariantViolation(err))

	before := today.AddDate(0, 0, -1)
	_, err = NewCertification("ACE", "", today, &before)
	assert.True(t, sharedDomain.IsInvariantViolation(err))
}

func TestAvailabilitySlot_Hours(t *testing.T) {
	tests := []struct {
		name     string
		start    int
		end      int
		expectOK bool
	}{
		{"full day", 0, 24, true},
		{"morning", 6, 10, true},
		{"empty", 10, 10, false},
		{"reversed", 12, 8, false},
		{"negative start", -1, 8, false},
		{"past midnight", 20, 25, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot, err := NewAvailabilitySlot(Monday, tt.start, tt.end)
			if tt.expectOK {
				require.NoError(t, err)
				assert.Equal(t, tt.start, slot.StartHour())
				assert.Equal(t, tt.end, slot.EndHour())
			} else {
				assert.True(t, sharedDomain.IsInvariantViolation(err))
			}
		})
	}
}

func TestAvailabilitySlot_InvalidDay(t *testing.T) {
	_, err := NewAvailabilitySlot(Weekday("FUNDAY"), 8, 9)
	assert.Error(t, err)
}

func TestCoach_AddCertificationAndSlot(t *testing.T) {
	c := newTestCoach(t, TierStandard, 2, SpecCardio)
	cert, err := NewCertification("ACE", "", today, nil)
	require.NoError(t, err)
	slot, err := NewAvailabilitySlot(Friday, 8, 12)
	require.NoError(t, err)

	c.AddCertification(cert)
	c.AddAvailabilitySlot(slot)

	assert.Len(t, c.Certifications(), 1)
	assert.Len(t, c.AvailabilitySlots(), 1)
}

func TestParseSpecialization(t *testing.T) {
	spec, err := ParseSpecialization(" cardio ")
	require.NoError(t, err)
	assert.Equal(t, SpecCardio, spec)

	_, err = ParseSpecialization("pilates")
	assert.Error(t, err)
}
