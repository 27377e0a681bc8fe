package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
)

// MembershipTier is the paid level of a membership.
type MembershipTier string

const (
	TierFree    MembershipTier = "FREE"
	TierPremium MembershipTier = "PREMIUM"
	TierVIP     MembershipTier = "VIP"
)

// IsValid checks if the tier is known.
func (t MembershipTier) IsValid() bool {
	switch t {
	case TierFree, TierPremium, TierVIP:
		return true
	default:
		return false
	}
}

// ParseMembershipTier converts a string into a MembershipTier.
func ParseMembershipTier(value string) (MembershipTier, error) {
	tier := MembershipTier(value)
	if !tier.IsValid() {
		return "", sharedDomain.Invariantf("invalid membership tier: %q", value)
	}
	return tier, nil
}

// Membership is an immutable tier plus validity date.
type Membership struct {
	tier       MembershipTier
	validUntil time.Time
}

// NewMembership creates a membership valid through the given date.
func NewMembership(tier MembershipTier, validUntil time.Time) (Membership, error) {
	if !tier.IsValid() {
		return Membership{}, sharedDomain.Invariantf("invalid membership tier: %q", tier)
	}
	return Membership{tier: tier, validUntil: sharedDomain.DateOf(validUntil)}, nil
}

func (m Membership) Tier() MembershipTier  { return m.tier }
func (m Membership) ValidUntil() time.Time { return m.validUntil }

// IsActive reports whether the membership is still valid on asOf.
func (m Membership) IsActive(asOf time.Time) bool {
	return !m.validUntil.Before(sharedDomain.DateOf(asOf))
}
