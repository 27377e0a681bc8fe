package persistence

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/studio/internal/plans/domain"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/database"
)

const selectPlans = `
	SELECT id, member_id, coach_id, name, status, CAST(start_date AS TEXT), CAST(end_date AS TEXT),
	       CAST(created_at AS TEXT), CAST(updated_at AS TEXT)
	FROM training_plans
`

// PlanRepository implements domain.Repository on a database.Connection.
type PlanRepository struct {
	conn database.Connection
}

// NewPlanRepository creates a new training plan repository.
func NewPlanRepository(conn database.Connection) *PlanRepository {
	return &PlanRepository{conn: conn}
}

// planRow represents a database row for training plans.
type planRow struct {
	ID        int64
	MemberID  int64
	CoachID   int64
	Name      string
	Status    string
	StartDate string
	EndDate   string
	CreatedAt string
	UpdatedAt string
}

// sessionRow represents a database row for workout sessions.
type sessionRow struct {
	ID            int64
	Name          string
	ScheduledDate string
	Status        string
	CompletedAt   *string
	Notes         string
}

// Save persists the plan and replaces its sessions and their exercises.
func (r *PlanRepository) Save(ctx context.Context, plan *domain.TrainingPlan) error {
	return database.InTx(ctx, r.conn, func(ctx context.Context, exec database.Executor) error {
		return r.saveWithTx(ctx, exec, plan)
	})
}

func (r *PlanRepository) saveWithTx(ctx context.Context, exec database.Executor, plan *domain.TrainingPlan) error {
	args := []any{
		plan.MemberID(),
		plan.CoachID(),
		plan.Name(),
		string(plan.Status()),
		sharedDomain.FormatDate(plan.StartDate()),
		sharedDomain.FormatDate(plan.EndDate()),
		database.FormatTimestamp(plan.CreatedAt()),
		database.FormatTimestamp(plan.UpdatedAt()),
	}

	if !plan.HasID() {
		query := `
			INSERT INTO training_plans (
				member_id, coach_id, name, status, start_date, end_date, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`
		var id int64
		if err := exec.QueryRow(ctx, query, args...).Scan(&id); err != nil {
			return fmt.Errorf("failed to insert plan: %w", err)
		}
		plan.AssignID(id)
	} else {
		query := `
			INSERT INTO training_plans (
				id, member_id, coach_id, name, status, start_date, end_date, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				member_id = EXCLUDED.member_id,
				coach_id = EXCLUDED.coach_id,
				name = EXCLUDED.name,
				status = EXCLUDED.status,
				start_date = EXCLUDED.start_date,
				end_date = EXCLUDED.end_date,
				updated_at = EXCLUDED.updated_at
		`
		if _, err := exec.Exec(ctx, query, append([]any{plan.ID()}, args...)...); err != nil {
			return fmt.Errorf("failed to save plan %d: %w", plan.ID(), err)
		}
	}

	return r.replaceSessions(ctx, exec, plan)
}

// replaceSessions rewrites the session list. Stored sessions keep their ids;
// planned exercises cascade with the session rows.
func (r *PlanRepository) replaceSessions(ctx context.Context, exec database.Executor, plan *domain.TrainingPlan) error {
	if _, err := exec.Exec(ctx, `DELETE FROM workout_sessions WHERE plan_id = $1`, plan.ID()); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}

	for i, session := range plan.Sessions() {
		args := []any{
			plan.ID(),
			i,
			session.Name(),
			sharedDomain.FormatDate(session.ScheduledDate()),
			string(session.Status()),
			database.FormatNullableTimestamp(session.CompletedAt()),
			session.Notes(),
		}

		if session.HasID() {
			query := `
				INSERT INTO workout_sessions (id, plan_id, position, name, scheduled_date, status, completed_at, notes)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`
			if _, err := exec.Exec(ctx, query, append([]any{session.ID()}, args...)...); err != nil {
				return fmt.Errorf("failed to save session %d: %w", session.ID(), err)
			}
		} else {
			query := `
				INSERT INTO workout_sessions (plan_id, position, name, scheduled_date, status, completed_at, notes)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id
			`
			var id int64
			if err := exec.QueryRow(ctx, query, args...).Scan(&id); err != nil {
				return fmt.Errorf("failed to insert session: %w", err)
			}
			session.AssignID(id)
		}

		for j, ex := range session.Exercises() {
			query := `
				INSERT INTO planned_exercises (session_id, position, exercise_id, name, sets, reps, rest_seconds)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`
			if _, err := exec.Exec(ctx, query,
				session.ID(), j, ex.ExerciseID(), ex.Name(), ex.Sets(), ex.Reps(), ex.RestSeconds(),
			); err != nil {
				return fmt.Errorf("failed to save exercise %q: %w", ex.Name(), err)
			}
		}
	}
	return nil
}

// FindByID retrieves a plan by its ID.
func (r *PlanRepository) FindByID(ctx context.Context, id int64) (*domain.TrainingPlan, error) {
	plans, err := r.query(ctx, selectPlans+` WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, sharedDomain.NotFoundf("training plan %d not found", id)
	}
	return plans[0], nil
}

// FindAll retrieves every plan ordered by id.
func (r *PlanRepository) FindAll(ctx context.Context) ([]*domain.TrainingPlan, error) {
	return r.query(ctx, selectPlans+` ORDER BY id`)
}

// FindByMember retrieves a member's plans, oldest first.
func (r *PlanRepository) FindByMember(ctx context.Context, memberID int64) ([]*domain.TrainingPlan, error) {
	return r.query(ctx, selectPlans+` WHERE member_id = $1 ORDER BY id`, memberID)
}

// Delete removes a plan with its sessions.
func (r *PlanRepository) Delete(ctx context.Context, id int64) error {
	err := database.ExecOne(ctx, database.ExecutorFromContext(ctx, r.conn),
		sharedDomain.NotFoundf("training plan %d not found", id),
		`DELETE FROM training_plans WHERE id = $1`, id)
	if err != nil && !sharedDomain.IsNotFound(err) {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	return err
}

func (r *PlanRepository) query(ctx context.Context, query string, args ...any) ([]*domain.TrainingPlan, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	var planRows []planRow
	for rows.Next() {
		var row planRow
		if err := rows.Scan(
			&row.ID,
			&row.MemberID,
			&row.CoachID,
			&row.Name,
			&row.Status,
			&row.StartDate,
			&row.EndDate,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		planRows = append(planRows, row)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	plans := make([]*domain.TrainingPlan, 0, len(planRows))
	for _, row := range planRows {
		sessions, err := r.loadSessions(ctx, exec, row.ID)
		if err != nil {
			return nil, err
		}
		plan, err := rowToPlan(row, sessions)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func (r *PlanRepository) loadSessions(ctx context.Context, exec database.Executor, planID int64) ([]*domain.WorkoutSession, error) {
	query := `
		SELECT id, name, CAST(scheduled_date AS TEXT), status, CAST(completed_at AS TEXT), notes
		FROM workout_sessions
		WHERE plan_id = $1
		ORDER BY position, id
	`
	rows, err := exec.Query(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	var sessionRows []sessionRow
	for rows.Next() {
		var row sessionRow
		if err := rows.Scan(&row.ID, &row.Name, &row.ScheduledDate, &row.Status, &row.CompletedAt, &row.Notes); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessionRows = append(sessionRows, row)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	sessions := make([]*domain.WorkoutSession, 0, len(sessionRows))
	for _, row := range sessionRows {
		exercises, err := r.loadExercises(ctx, exec, row.ID)
		if err != nil {
			return nil, err
		}
		scheduled, err := sharedDomain.ParseDate(row.ScheduledDate)
		if err != nil {
			return nil, err
		}
		completedAt, err := database.ParseNullableTimestamp(row.CompletedAt)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, domain.RehydrateWorkoutSession(
			row.ID,
			row.Name,
			scheduled,
			exercises,
			domain.SessionStatus(row.Status),
			completedAt,
			row.Notes,
		))
	}
	return sessions, nil
}

func (r *PlanRepository) loadExercises(ctx context.Context, exec database.Executor, sessionID int64) ([]domain.PlannedExercise, error) {
	query := `
		SELECT exercise_id, name, sets, reps, rest_seconds
		FROM planned_exercises
		WHERE session_id = $1
		ORDER BY position, id
	`
	rows, err := exec.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query exercises: %w", err)
	}
	defer rows.Close()

	var exercises []domain.PlannedExercise
	for rows.Next() {
		var (
			exerciseID, name string
			sets, reps, rest int
		)
		if err := rows.Scan(&exerciseID, &name, &sets, &reps, &rest); err != nil {
			return nil, fmt.Errorf("failed to scan exercise: %w", err)
		}
		exercises = append(exercises, domain.RehydratePlannedExercise(exerciseID, name, sets, reps, rest))
	}
	return exercises, rows.Err()
}

func rowToPlan(row planRow, sessions []*domain.WorkoutSession) (*domain.TrainingPlan, error) {
	start, err := sharedDomain.ParseDate(row.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := sharedDomain.ParseDate(row.EndDate)
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

	return domain.RehydratePlan(
		sharedDomain.RehydrateBaseEntity(row.ID, createdAt, updatedAt),
		row.MemberID,
		row.CoachID,
		row.Name,
		domain.PlanStatus(row.Status),
		start,
		end,
		sessions,
	), nil
}
