package persistence

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/studio/internal/members/domain"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/database"
)

const selectMembers = `
	SELECT id, first_name, last_name, email, phone, fitness_level, membership_tier,
	       CAST(membership_valid_until AS TEXT), active_plan_id,
	       CAST(created_at AS TEXT), CAST(updated_at AS TEXT)
	FROM members
`

// MemberRepository implements domain.Repository on a database.Connection.
type MemberRepository struct {
	conn database.Connection
}

// NewMemberRepository creates a new member repository.
func NewMemberRepository(conn database.Connection) *MemberRepository {
	return &MemberRepository{conn: conn}
}

// memberRow represents a database row for members.
type memberRow struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	FitnessLevel string
	Tier         string
	ValidUntil   string
	ActivePlanID *int64
	CreatedAt    string
	UpdatedAt    string
}

// goalRow represents a database row for fitness goals.
type goalRow struct {
	ID          int64
	GoalType    string
	Description string
	TargetDate  string
	Achieved    bool
}

// Save persists the member and replaces its goals.
func (r *MemberRepository) Save(ctx context.Context, member *domain.Member) error {
	return database.InTx(ctx, r.conn, func(ctx context.Context, exec database.Executor) error {
		return r.saveWithTx(ctx, exec, member)
	})
}

func (r *MemberRepository) saveWithTx(ctx context.Context, exec database.Executor, member *domain.Member) error {
	var planID *int64
	if id, ok := member.ActivePlanID(); ok {
		planID = &id
	}
	args := []any{
		member.Name().First(),
		member.Name().Last(),
		member.Email().String(),
		member.Phone().String(),
		string(member.FitnessLevel()),
		string(member.Membership().Tier()),
		sharedDomain.FormatDate(member.Membership().ValidUntil()),
		planID,
		database.FormatTimestamp(member.CreatedAt()),
		database.FormatTimestamp(member.UpdatedAt()),
	}

	if !member.HasID() {
		query := `
			INSERT INTO members (
				first_name, last_name, email, phone, fitness_level, membership_tier,
				membership_valid_until, active_plan_id, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id
		`
		var id int64
		if err := exec.QueryRow(ctx, query, args...).Scan(&id); err != nil {
			return r.mapWriteError(member, err)
		}
		member.AssignID(id)
	} else {
		query := `
			INSERT INTO members (
				id, first_name, last_name, email, phone, fitness_level, membership_tier,
				membership_valid_until, active_plan_id, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE SET
				first_name = EXCLUDED.first_name,
				last_name = EXCLUDED.last_name,
				email = EXCLUDED.email,
				phone = EXCLUDED.phone,
				fitness_level = EXCLUDED.fitness_level,
				membership_tier = EXCLUDED.membership_tier,
				membership_valid_until = EXCLUDED.membership_valid_until,
				active_plan_id = EXCLUDED.active_plan_id,
				updated_at = EXCLUDED.updated_at
		`
		if _, err := exec.Exec(ctx, query, append([]any{member.ID()}, args...)...); err != nil {
			return r.mapWriteError(member, err)
		}
	}

	return r.replaceGoals(ctx, exec, member)
}

func (r *MemberRepository) replaceGoals(ctx context.Context, exec database.Executor, member *domain.Member) error {
	if _, err := exec.Exec(ctx, `DELETE FROM fitness_goals WHERE member_id = $1`, member.ID()); err != nil {
		return fmt.Errorf("failed to clear goals: %w", err)
	}

	for i, goal := range member.Goals() {
		args := []any{
			member.ID(),
			i,
			string(goal.Type()),
			goal.Description(),
			sharedDomain.FormatDate(goal.TargetDate()),
			goal.IsAchieved(),
		}
		if goal.HasID() {
			query := `
				INSERT INTO fitness_goals (id, member_id, position, goal_type, description, target_date, achieved)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`
			if _, err := exec.Exec(ctx, query, append([]any{goal.ID()}, args...)...); err != nil {
				return fmt.Errorf("failed to save goal %d: %w", goal.ID(), err)
			}
			continue
		}

		query := `
			INSERT INTO fitness_goals (member_id, position, goal_type, description, target_date, achieved)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`
		var id int64
		if err := exec.QueryRow(ctx, query, args...).Scan(&id); err != nil {
			return fmt.Errorf("failed to insert goal: %w", err)
		}
		goal.AssignID(id)
	}
	return nil
}

func (r *MemberRepository) mapWriteError(member *domain.Member, err error) error {
	if database.IsUniqueViolation(err) {
		return sharedDomain.Invariantf("email %s is already registered", member.Email())
	}
	return fmt.Errorf("failed to save member: %w", err)
}

// FindByID retrieves a member by its ID.
func (r *MemberRepository) FindByID(ctx context.Context, id int64) (*domain.Member, error) {
	members, err := r.query(ctx, selectMembers+` WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, sharedDomain.NotFoundf("member %d not found", id)
	}
	return members[0], nil
}

// FindByEmail retrieves a member by email address. Returns nil, nil when absent.
func (r *MemberRepository) FindByEmail(ctx context.Context, email string) (*domain.Member, error) {
	members, err := r.query(ctx, selectMembers+` WHERE email = $1`, email)
	if err != nil || len(members) == 0 {
		return nil, err
	}
	return members[0], nil
}

// FindAll retrieves every member ordered by id.
func (r *MemberRepository) FindAll(ctx context.Context) ([]*domain.Member, error) {
	return r.query(ctx, selectMembers+` ORDER BY id`)
}

// Delete removes a member. Goals and plans go with it.
func (r *MemberRepository) Delete(ctx context.Context, id int64) error {
	err := database.ExecOne(ctx, database.ExecutorFromContext(ctx, r.conn),
		sharedDomain.NotFoundf("member %d not found", id),
		`DELETE FROM members WHERE id = $1`, id)
	if err != nil && !sharedDomain.IsNotFound(err) {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return err
}

func (r *MemberRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Member, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	var memberRows []memberRow
	for rows.Next() {
		var row memberRow
		if err := rows.Scan(
			&row.ID,
			&row.FirstName,
			&row.LastName,
			&row.Email,
			&row.Phone,
			&row.FitnessLevel,
			&row.Tier,
			&row.ValidUntil,
			&row.ActivePlanID,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		memberRows = append(memberRows, row)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Children are loaded after the cursor closes; pgx allows one open query per connection.
	rows.Close()

	members := make([]*domain.Member, 0, len(memberRows))
	for _, row := range memberRows {
		goals, err := r.loadGoals(ctx, exec, row.ID)
		if err != nil {
			return nil, err
		}
		member, err := rowToMember(row, goals)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, nil
}

func (r *MemberRepository) loadGoals(ctx context.Context, exec database.Executor, memberID int64) ([]*domain.FitnessGoal, error) {
	query := `
		SELECT id, goal_type, description, CAST(target_date AS TEXT), achieved
		FROM fitness_goals
		WHERE member_id = $1
		ORDER BY position, id
	`
	rows, err := exec.Query(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var goals []*domain.FitnessGoal
	for rows.Next() {
		var row goalRow
		if err := rows.Scan(&row.ID, &row.GoalType, &row.Description, &row.TargetDate, &row.Achieved); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		target, err := sharedDomain.ParseDate(row.TargetDate)
		if err != nil {
			return nil, err
		}
		goals = append(goals, domain.RehydrateFitnessGoal(row.ID, domain.GoalType(row.GoalType), row.Description, target, row.Achieved))
	}
	return goals, rows.Err()
}

func rowToMember(row memberRow, goals []*domain.FitnessGoal) (*domain.Member, error) {
	name, err := sharedDomain.NewFullName(row.FirstName, row.LastName)
	if err != nil {
		return nil, err
	}
	email, err := sharedDomain.NewEmail(row.Email)
	if err != nil {
		return nil, err
	}
	phone, err := sharedDomain.NewPhone(row.Phone)
	if err != nil {
		return nil, err
	}
	validUntil, err := sharedDomain.ParseDate(row.ValidUntil)
	if err != nil {
		return nil, err
	}
	membership, err := domain.NewMembership(domain.MembershipTier(row.Tier), validUntil)
	if err != nil {
		return nil, err
	}
	createdAt, err := database.ParseTimestamp(row.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := database.ParseTimestamp(row.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateMember(
		sharedDomain.RehydrateBaseEntity(row.ID, createdAt, updatedAt),
		name,
		email,
		phone,
		domain.FitnessLevel(row.FitnessLevel),
		membership,
		goals,
		row.ActivePlanID,
	), nil
}
