package app

import (
	coachDomain "github.com/felixgeelhaar/studio/internal/coaches/domain"
	coachPersistence "github.com/felixgeelhaar/studio/internal/coaches/infrastructure/persistence"
	memberDomain "github.com/felixgeelhaar/studio/internal/members/domain"
	memberPersistence "github.com/felixgeelhaar/studio/internal/members/infrastructure/persistence"
	planDomain "github.com/felixgeelhaar/studio/internal/plans/domain"
	planPersistence "github.com/felixgeelhaar/studio/internal/plans/infrastructure/persistence"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/outbox"
)

// RepositoryFactory creates repositories over one connection. The SQL is
// shared by both drivers; the connection rebinds placeholders as needed.
type RepositoryFactory struct {
	conn database.Connection
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{conn: conn}
}

// Driver returns the driver of the underlying connection.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.conn.Driver()
}

// MemberRepository creates the member repository.
func (f *RepositoryFactory) MemberRepository() memberDomain.Repository {
	return memberPersistence.NewMemberRepository(f.conn)
}

// CoachRepository creates the coach repository.
func (f *RepositoryFactory) CoachRepository() coachDomain.Repository {
	return coachPersistence.NewCoachRepository(f.conn)
}

// PlanRepository creates the training plan repository.
func (f *RepositoryFactory) PlanRepository() planDomain.Repository {
	return planPersistence.NewPlanRepository(f.conn)
}

// OutboxRepository creates the outbox repository.
func (f *RepositoryFactory) OutboxRepository() outbox.Repository {
	return outbox.NewSQLRepository(f.conn)
}
