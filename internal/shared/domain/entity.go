package domain

import "time"

// Entity represents a domain object with identity.
type Entity interface {
	ID() int64
	HasID() bool
	CreatedAt() time.Time
	UpdatedAt() time.Time
}

// BaseEntity provides common entity functionality.
// The id stays zero until the entity is first persisted.
type BaseEntity struct {
	id        int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBaseEntity creates a transient entity stamped with the current time.
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		createdAt: now,
		updatedAt: now,
	}
}

// RehydrateBaseEntity recreates an entity from persisted state.
func RehydrateBaseEntity(id int64, createdAt, updatedAt time.Time) BaseEntity {
	return BaseEntity{
		id:        id,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (e BaseEntity) ID() int64            { return e.id }
func (e BaseEntity) HasID() bool          { return e.id != 0 }
func (e BaseEntity) CreatedAt() time.Time { return e.createdAt }
func (e BaseEntity) UpdatedAt() time.Time { return e.updatedAt }

// AssignID sets the identity given by the store on first persistence.
func (e *BaseEntity) AssignID(id int64) {
	e.id = id
}

// Touch updates the updatedAt timestamp.
func (e *BaseEntity) Touch() {
	e.updatedAt = time.Now().UTC()
}

// SameIdentity reports whether two persisted entities share an id.
func SameIdentity(a, b Entity) bool {
	if a == nil || b == nil || !a.HasID() || !b.HasID() {
		return false
	}
	return a.ID() == b.ID()
}
