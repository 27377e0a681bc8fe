package domain

import (
	"sort"
	"strings"

	memberDomain "github.com/felixgeelhaar/studio/internal/members/domain"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
)

// DefaultMaxClients is the capacity used when registration gives none.
const DefaultMaxClients = 10

var (
	ErrCoachAtCapacity  = sharedDomain.Invariantf("coach is at full capacity")
	ErrVIPOnly          = sharedDomain.Invariantf("VIP coaches only accept VIP members")
	ErrNegativeCapacity = sharedDomain.Invariantf("max clients cannot be negative")
)

// Tier is the service level a coach offers.
type Tier string

const (
	TierStandard Tier = "STANDARD"
	TierVIP      Tier = "VIP"
)

// IsValid checks if the tier is known.
func (t Tier) IsValid() bool {
	return t == TierStandard || t == TierVIP
}

// ParseTier converts a string into a Tier.
func ParseTier(value string) (Tier, error) {
	tier := Tier(value)
	if !tier.IsValid() {
		return "", sharedDomain.Invariantf("invalid coach tier: %q", value)
	}
	return tier, nil
}

// Specialization is a training discipline a coach teaches.
type Specialization string

const (
	SpecStrength  Specialization = "STRENGTH"
	SpecCardio    Specialization = "CARDIO"
	SpecYoga      Specialization = "YOGA"
	SpecCrossfit  Specialization = "CROSSFIT"
	SpecNutrition Specialization = "NUTRITION"
)

// IsValid checks if the specialization is known.
func (s Specialization) IsValid() bool {
	switch s {
	case SpecStrength, SpecCardio, SpecYoga, SpecCrossfit, SpecNutrition:
		return true
	default:
		return false
	}
}

// ParseSpecialization converts a string into a Specialization.
func ParseSpecialization(value string) (Specialization, error) {
	spec := Specialization(strings.ToUpper(strings.TrimSpace(value)))
	if !spec.IsValid() {
		return "", sharedDomain.Invariantf("invalid specialization: %q", value)
	}
	return spec, nil
}

// Coach is a trainer who takes members as clients.
type Coach struct {
	sharedDomain.BaseAggregateRoot
	name               sharedDomain.FullName
	email              sharedDomain.Email
	bio                string
	tier               Tier
	specializations    map[Specialization]struct{}
	maxClients         int
	currentClientCount int
	certifications     []*Certification
	availability       []*AvailabilitySlot
}

// RegisterCoach creates a new coach and records CoachRegistered.
func RegisterCoach(
	name sharedDomain.FullName,
	email sharedDomain.Email,
	bio string,
	tier Tier,
	specializations []Specialization,
	maxClients int,
) (*Coach, error) {
	if !tier.IsValid() {
		return nil, sharedDomain.Invariantf("invalid coach tier: %q", tier)
	}
	if maxClients < 0 {
		return nil, ErrNegativeCapacity
	}
	specs, err := specializationSet(specializations)
	if err != nil {
		return nil, err
	}

	c := &Coach{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		name:              name,
		email:             email,
		bio:               strings.TrimSpace(bio),
		tier:              tier,
		specializations:   specs,
		maxClients:        maxClients,
		certifications:    make([]*Certification, 0),
		availability:      make([]*AvailabilitySlot, 0),
	}
	c.AddDomainEvent(NewCoachRegistered(c))
	return c, nil
}

// RehydrateCoach recreates a coach from persisted state without recording events.
func RehydrateCoach(
	entity sharedDomain.BaseEntity,
	name sharedDomain.FullName,
	email sharedDomain.Email,
	bio string,
	tier Tier,
	specializations []Specialization,
	maxClients, currentClientCount int,
	certifications []*Certification,
	availability []*AvailabilitySlot,
) *Coach {
	specs := make(map[Specialization]struct{}, len(specializations))
	for _, s := range specializations {
		specs[s] = struct{}{}
	}
	if certifications == nil {
		certifications = make([]*Certification, 0)
	}
	if availability == nil {
		availability = make([]*AvailabilitySlot, 0)
	}
	return &Coach{
		BaseAggregateRoot:  sharedDomain.RehydrateBaseAggregateRoot(entity),
		name:               name,
		email:              email,
		bio:                bio,
		tier:               tier,
		specializations:    specs,
		maxClients:         maxClients,
		currentClientCount: currentClientCount,
		certifications:     certifications,
		availability:       availability,
	}
}

// Getters
func (c *Coach) Name() sharedDomain.FullName            { return c.name }
func (c *Coach) Email() sharedDomain.Email              { return c.email }
func (c *Coach) Bio() string                            { return c.bio }
func (c *Coach) Tier() Tier                             { return c.tier }
func (c *Coach) MaxClients() int                        { return c.maxClients }
func (c *Coach) CurrentClientCount() int                { return c.currentClientCount }
func (c *Coach) Certifications() []*Certification       { return c.certifications }
func (c *Coach) AvailabilitySlots() []*AvailabilitySlot { return c.availability }

// Specializations returns the coach's disciplines in a stable order.
func (c *Coach) Specializations() []Specialization {
	specs := make([]Specialization, 0, len(c.specializations))
	for s := range c.specializations {
		specs = append(specs, s)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i] < specs[j] })
	return specs
}

// HasSpecialization reports whether the coach teaches spec.
func (c *Coach) HasSpecialization(spec Specialization) bool {
	_, ok := c.specializations[spec]
	return ok
}

// IsAtCapacity reports whether the coach has no free client slot.
func (c *Coach) IsAtCapacity() bool {
	return c.currentClientCount >= c.maxClients
}

// CanAcceptClient reports whether a member of the given tier could be taken on.
func (c *Coach) CanAcceptClient(memberTier memberDomain.MembershipTier) bool {
	if c.IsAtCapacity() {
		return false
	}
	if c.tier == TierVIP && memberTier != memberDomain.TierVIP {
		return false
	}
	return true
}

// AcceptClient takes on a member of the given tier.
func (c *Coach) AcceptClient(memberTier memberDomain.MembershipTier) error {
	if c.IsAtCapacity() {
		return ErrCoachAtCapacity
	}
	if c.tier == TierVIP && memberTier != memberDomain.TierVIP {
		return ErrVIPOnly
	}
	c.currentClientCount++
	c.Touch()
	return nil
}

// ReleaseClient frees one client slot. The count never drops below zero.
func (c *Coach) ReleaseClient() {
	if c.currentClientCount > 0 {
		c.currentClientCount--
		c.Touch()
	}
}

// AddCertification appends a certification.
func (c *Coach) AddCertification(cert *Certification) {
	c.certifications = append(c.certifications, cert)
	c.Touch()
}

// AddAvailabilitySlot appends a weekly availability slot.
func (c *Coach) AddAvailabilitySlot(slot *AvailabilitySlot) {
	c.availability = append(c.availability, slot)
	c.Touch()
}

func specializationSet(specs []Specialization) (map[Specialization]struct{}, error) {
	set := make(map[Specialization]struct{}, len(specs))
	for _, s := range specs {
		if !s.IsValid() {
			return nil, sharedDomain.Invariantf("invalid specialization: %q", s)
		}
		set[s] = struct{}{}
	}
	return set, nil
}
