package domain

import (
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
)

// Certification is a qualification held by a coach.
type Certification struct {
	sharedDomain.BaseEntity
	name        string
	issuingBody string
	issuedAt    time.Time
	expiresAt   *time.Time
}

// NewCertification creates a certification. expiresAt may be nil.
func NewCertification(name, issuingBody string, issuedAt time.Time, expiresAt *time.Time) (*Certification, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, sharedDomain.Invariantf("certification name cannot be blank")
	}
	issued := sharedDomain.DateOf(issuedAt)
	var expiry *time.Time
	if expiresAt != nil {
		e := sharedDomain.DateOf(*expiresAt)
		if e.Before(issued) {
			return nil, sharedDomain.Invariantf("certification cannot expire before it is issued")
		}
		expiry = &e
	}
	return &Certification{
		BaseEntity:  sharedDomain.NewBaseEntity(),
		name:        name,
		issuingBody: strings.TrimSpace(issuingBody),
		issuedAt:    issued,
		expiresAt:   expiry,
	}, nil
}

// RehydrateCertification recreates a certification from persisted state.
func RehydrateCertification(id int64, name, issuingBody string, issuedAt time.Time, expiresAt *time.Time) *Certification {
	return &Certification{
		BaseEntity:  sharedDomain.RehydrateBaseEntity(id, time.Time{}, time.Time{}),
		name:        name,
		issuingBody: issuingBody,
		issuedAt:    issuedAt,
		expiresAt:   expiresAt,
	}
}

func (c *Certification) Name() string          { return c.name }
func (c *Certification) IssuingBody() string   { return c.issuingBody }
func (c *Certification) IssuedAt() time.Time   { return c.issuedAt }
func (c *Certification) ExpiresAt() *time.Time { return c.expiresAt }

// IsValid reports whether the certification is still valid on asOf.
func (c *Certification) IsValid(asOf time.Time) bool {
	if c.expiresAt == nil {
		return true
	}
	return !c.expiresAt.Before(sharedDomain.DateOf(asOf))
}
