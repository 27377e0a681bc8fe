package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/studio/internal/coaches/domain"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/database"
)

const selectCoaches = `
	SELECT c.id, c.first_name, c.last_name, c.email, c.bio, c.tier, c.max_clients,
	       c.current_client_count, CAST(c.created_at AS TEXT), CAST(c.updated_at AS TEXT)
	FROM coaches c
`

// CoachRepository implements domain.Repository on a database.Connection.
type CoachRepository struct {
	conn database.Connection
}

// NewCoachRepository creates a new coach repository.
func NewCoachRepository(conn database.Connection) *CoachRepository {
	return &CoachRepository{conn: conn}
}

// coachRow represents a database row for coaches.
type coachRow struct {
	ID                 int64
	FirstName          string
	LastName           string
	Email              string
	Bio                string
	Tier               string
	MaxClients         int
	CurrentClientCount int
	CreatedAt          string
	UpdatedAt          string
}

// Save persists the coach and replaces its specializations, certifications and slots.
func (r *CoachRepository) Save(ctx context.Context, coach *domain.Coach) error {
	return database.InTx(ctx, r.conn, func(ctx context.Context, exec database.Executor) error {
		return r.saveWithTx(ctx, exec, coach)
	})
}

func (r *CoachRepository) saveWithTx(ctx context.Context, exec database.Executor, coach *domain.Coach) error {
	args := []any{
		coach.Name().First(),
		coach.Name().Last(),
		coach.Email().String(),
		coach.Bio(),
		string(coach.Tier()),
		coach.MaxClients(),
		coach.CurrentClientCount(),
		database.FormatTimestamp(coach.CreatedAt()),
		database.FormatTimestamp(coach.UpdatedAt()),
	}

	if !coach.HasID() {
		query := `
			INSERT INTO coaches (
				first_name, last_name, email, bio, tier, max_clients,
				current_client_count, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id
		`
		var id int64
		if err := exec.QueryRow(ctx, query, args...).Scan(&id); err != nil {
			return r.mapWriteError(coach, err)
		}
		coach.AssignID(id)
	} else {
		query := `
			INSERT INTO coaches (
				id, first_name, last_name, email, bio, tier, max_clients,
				current_client_count, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO UPDATE SET
				first_name = EXCLUDED.first_name,
				last_name = EXCLUDED.last_name,
				email = EXCLUDED.email,
				bio = EXCLUDED.bio,
				tier = EXCLUDED.tier,
				max_clients = EXCLUDED.max_clients,
				current_client_count = EXCLUDED.current_client_count,
				updated_at = EXCLUDED.updated_at
		`
		if _, err := exec.Exec(ctx, query, append([]any{coach.ID()}, args...)...); err != nil {
			return r.mapWriteError(coach, err)
		}
	}

	if err := r.replaceSpecializations(ctx, exec, coach); err != nil {
		return err
	}
	if err := r.replaceCertifications(ctx, exec, coach); err != nil {
		return err
	}
	return r.replaceSlots(ctx, exec, coach)
}

func (r *CoachRepository) replaceSpecializations(ctx context.Context, exec database.Executor, coach *domain.Coach) error {
	if _, err := exec.Exec(ctx, `DELETE FROM coach_specializations WHERE coach_id = $1`, coach.ID()); err != nil {
		return fmt.Errorf("failed to clear specializations: %w", err)
	}
	for _, spec := range coach.Specializations() {
		query := `INSERT INTO coach_specializations (coach_id, specialization) VALUES ($1, $2)`
		if _, err := exec.Exec(ctx, query, coach.ID(), string(spec)); err != nil {
			return fmt.Errorf("failed to save specialization %s: %w", spec, err)
		}
	}
	return nil
}

func (r *CoachRepository) replaceCertifications(ctx context.Context, exec database.Executor, coach *domain.Coach) error {
	if _, err := exec.Exec(ctx, `DELETE FROM certifications WHERE coach_id = $1`, coach.ID()); err != nil {
		return fmt.Errorf("failed to clear certifications: %w", err)
	}

	for i, cert := range coach.Certifications() {
		var expires *string
		if cert.ExpiresAt() != nil {
			s := sharedDomain.FormatDate(*cert.ExpiresAt())
			expires = &s
		}
		args := []any{coach.ID(), i, cert.Name(), cert.IssuingBody(), sharedDomain.FormatDate(cert.IssuedAt()), expires}

		if cert.HasID() {
			query := `
				INSERT INTO certifications (id, coach_id, position, name, issuing_body, issued_at, expires_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`
			if _, err := exec.Exec(ctx, query, append([]any{cert.ID()}, args...)...); err != nil {
				return fmt.Errorf("failed to save certification %d: %w", cert.ID(), err)
			}
			continue
		}
		query := `
			INSERT INTO certifications (coach_id, position, name, issuing_body, issued_at, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`
		var id int64
		if err := exec.QueryRow(ctx, query, args...).Scan(&id); err != nil {
			return fmt.Errorf("failed to insert certification: %w", err)
		}
		cert.AssignID(id)
	}
	return nil
}

func (r *CoachRepository) replaceSlots(ctx context.Context, exec database.Executor, coach *domain.Coach) error {
	if _, err := exec.Exec(ctx, `DELETE FROM availability_slots WHERE coach_id = $1`, coach.ID()); err != nil {
		return fmt.Errorf("failed to clear availability: %w", err)
	}

	for i, slot := range coach.AvailabilitySlots() {
		args := []any{coach.ID(), i, string(slot.Day()), slot.StartHour(), slot.EndHour()}

		if slot.HasID() {
			query := `
				INSERT INTO availability_slots (id, coach_id, position, day_of_week, start_hour, end_hour)
				VALUES ($1, $2, $3, $4, $5, $6)
			`
			if _, err := exec.Exec(ctx, query, append([]any{slot.ID()}, args...)...); err != nil {
				return fmt.Errorf("failed to save availability slot %d: %w", slot.ID(), err)
			}
			continue
		}
		query := `
			INSERT INTO availability_slots (coach_id, position, day_of_week, start_hour, end_hour)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`
		var id int64
		if err := exec.QueryRow(ctx, query, args...).Scan(&id); err != nil {
			return fmt.Errorf("failed to insert availability slot: %w", err)
		}
		slot.AssignID(id)
	}
	return nil
}

func (r *CoachRepository) mapWriteError(coach *domain.Coach, err error) error {
	if database.IsUniqueViolation(err) {
		return sharedDomain.Invariantf("email %s is already registered", coach.Email())
	}
	return fmt.Errorf("failed to save coach: %w", err)
}

// FindByID retrieves a coach by its ID.
func (r *CoachRepository) FindByID(ctx context.Context, id int64) (*domain.Coach, error) {
	coaches, err := r.query(ctx, selectCoaches+` WHERE c.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(coaches) == 0 {
		return nil, sharedDomain.NotFoundf("coach %d not found", id)
	}
	return coaches[0], nil
}

// FindByEmail retrieves a coach by email address. Returns nil, nil when absent.
func (r *CoachRepository) FindByEmail(ctx context.Context, email string) (*domain.Coach, error) {
	coaches, err := r.query(ctx, selectCoaches+` WHERE c.email = $1`, email)
	if err != nil || len(coaches) == 0 {
		return nil, err
	}
	return coaches[0], nil
}

// FindAll retrieves every coach ordered by id.
func (r *CoachRepository) FindAll(ctx context.Context) ([]*domain.Coach, error) {
	return r.query(ctx, selectCoaches+` ORDER BY c.id`)
}

// FindBySpecialization retrieves the coaches offering spec.
func (r *CoachRepository) FindBySpecialization(ctx context.Context, spec domain.Specialization) ([]*domain.Coach, error) {
	query := selectCoaches + `
		JOIN coach_specializations s ON s.coach_id = c.id
		WHERE s.specialization = $1
		ORDER BY c.id
	`
	return r.query(ctx, query, string(spec))
}

// Delete removes a coach with its children. A coach still named on a
// training plan cannot be deleted.
func (r *CoachRepository) Delete(ctx context.Context, id int64) error {
	err := database.ExecOne(ctx, database.ExecutorFromContext(ctx, r.conn),
		sharedDomain.NotFoundf("coach %d not found", id),
		`DELETE FROM coaches WHERE id = $1`, id)
	switch {
	case err == nil, sharedDomain.IsNotFound(err):
		return err
	case database.IsForeignKeyViolation(err):
		return sharedDomain.Invariantf("coach %d has training plans", id)
	default:
		return fmt.Errorf("failed to delete coach: %w", err)
	}
}

func (r *CoachRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Coach, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query coaches: %w", err)
	}
	var coachRows []coachRow
	for rows.Next() {
		var row coachRow
		if err := rows.Scan(
			&row.ID,
			&row.FirstName,
			&row.LastName,
			&row.Email,
			&row.Bio,
			&row.Tier,
			&row.MaxClients,
			&row.CurrentClientCount,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan coach: %w", err)
		}
		coachRows = append(coachRows, row)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	coaches := make([]*domain.Coach, 0, len(coachRows))
	for _, row := range coachRows {
		coach, err := r.load(ctx, exec, row)
		if err != nil {
			return nil, err
		}
		coaches = append(coaches, coach)
	}
	return coaches, nil
}

func (r *CoachRepository) load(ctx context.Context, exec database.Executor, row coachRow) (*domain.Coach, error) {
	specs, err := r.loadSpecializations(ctx, exec, row.ID)
	if err != nil {
		return nil, err
	}
	certs, err := r.loadCertifications(ctx, exec, row.ID)
	if err != nil {
		return nil, err
	}
	slots, err := r.loadSlots(ctx, exec, row.ID)
	if err != nil {
		return nil, err
	}

	name, err := sharedDomain.NewFullName(row.FirstName, row.LastName)
	if err != nil {
		return nil, err
	}
	email, err := sharedDomain.NewEmail(row.Email)
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

	return domain.RehydrateCoach(
		sharedDomain.RehydrateBaseEntity(row.ID, createdAt, updatedAt),
		name,
		email,
		row.Bio,
		domain.Tier(row.Tier),
		specs,
		row.MaxClients,
		row.CurrentClientCount,
		certs,
		slots,
	), nil
}

func (r *CoachRepository) loadSpecializations(ctx context.Context, exec database.Executor, coachID int64) ([]domain.Specialization, error) {
	rows, err := exec.Query(ctx, `SELECT specialization FROM coach_specializations WHERE coach_id = $1`, coachID)
	if err != nil {
		return nil, fmt.Errorf("failed to query specializations: %w", err)
	}
	defer rows.Close()

	var specs []domain.Specialization
	for rows.Next() {
		var spec string
		if err := rows.Scan(&spec); err != nil {
			return nil, err
		}
		specs = append(specs, domain.Specialization(spec))
	}
	return specs, rows.Err()
}

func (r *CoachRepository) loadCertifications(ctx context.Context, exec database.Executor, coachID int64) ([]*domain.Certification, error) {
	query := `
		SELECT id, name, issuing_body, CAST(issued_at AS TEXT), CAST(expires_at AS TEXT)
		FROM certifications
		WHERE coach_id = $1
		ORDER BY position, id
	`
	rows, err := exec.Query(ctx, query, coachID)
	if err != nil {
		return nil, fmt.Errorf("failed to query certifications: %w", err)
	}
	defer rows.Close()

	var certs []*domain.Certification
	for rows.Next() {
		var (
			id       int64
			name     string
			body     string
			issued   string
			expires  *string
			expiryAt *time.Time
		)
		if err := rows.Scan(&id, &name, &body, &issued, &expires); err != nil {
			return nil, fmt.Errorf("failed to scan certification: %w", err)
		}
		issuedAt, err := sharedDomain.ParseDate(issued)
		if err != nil {
			return nil, err
		}
		if expires != nil {
			e, err := sharedDomain.ParseDate(*expires)
			if err != nil {
				return nil, err
			}
			expiryAt = &e
		}
		certs = append(certs, domain.RehydrateCertification(id, name, body, issuedAt, expiryAt))
	}
	return certs, rows.Err()
}

func (r *CoachRepository) loadSlots(ctx context.Context, exec database.Executor, coachID int64) ([]*domain.AvailabilitySlot, error) {
	query := `
		SELECT id, day_of_week, start_hour, end_hour
		FROM availability_slots
		WHERE coach_id = $1
		ORDER BY position, id
	`
	rows, err := exec.Query(ctx, query, coachID)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability: %w", err)
	}
	defer rows.Close()

	var slots []*domain.AvailabilitySlot
	for rows.Next() {
		var (
			id         int64
			day        string
			start, end int
		)
		if err := rows.Scan(&id, &day, &start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan availability slot: %w", err)
		}
		slots = append(slots, domain.RehydrateAvailabilitySlot(id, domain.Weekday(day), start, end))
	}
	return slots, rows.Err()
}
