package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/askhub-io/askhub/internal/agents"
	"github.com/askhub-io/askhub/internal/domain"
)

type UserRepository struct {
	db dbtx
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: pool}
}

func NewUserRepositoryWithTx(tx pgx.Tx) *UserRepository {
	return &UserRepository{db: tx}
}

const userColumns = `id, employee_id, email, first_name, last_name, department, team, expertise, reputation, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	err := r.db.QueryRow(ctx,
		`INSERT INTO users (employee_id, email, first_name, last_name, department, team, expertise, reputation, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		u.EmployeeID, u.Email, u.FirstName, u.LastName, nullableString(u.Department), nullableString(u.Team), u.Expertise, u.Reputation, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getBy(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*domain.User, error) {
	return r.getBy(ctx, `SELECT `+userColumns+` FROM users WHERE employee_id = $1`, employeeID)
}

func (r *UserRepository) getBy(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	var department, team *string
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.EmployeeID, &u.Email, &u.FirstName, &u.LastName, &department, &team, &u.Expertise, &u.Reputation, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if department != nil {
		u.Department = *department
	}
	if team != nil {
		u.Team = *team
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context, limit int) ([]*domain.User, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY reputation DESC, id ASC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUserRows(rows)
}

func (r *UserRepository) AdjustReputation(ctx context.Context, id int64, delta int) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE users SET reputation = GREATEST(reputation + $1, 0), updated_at = $2 WHERE id = $3`,
		delta, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// FindExperts returns users whose recorded skills or declared expertise
// intersect the required skills, with their full skill maps attached.
func (r *UserRepository) FindExperts(ctx context.Context, skills []string) ([]*agents.ExpertCandidate, error) {
	if len(skills) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT u.id, u.first_name, u.last_name, u.email, u.department, u.team, u.reputation, u.expertise
		 FROM users u
		 LEFT JOIN expertise_mapping em ON em.user_id = u.id
		 WHERE em.skill = ANY($1) OR u.expertise && $1
		 ORDER BY u.reputation DESC
		 LIMIT 50`,
		skills,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []*agents.ExpertCandidate
	byID := make(map[int64]*agents.ExpertCandidate)
	for rows.Next() {
		var c agents.ExpertCandidate
		var department, team *string
		if err := rows.Scan(&c.UserID, &c.FirstName, &c.LastName, &c.Email, &department, &team, &c.Reputation, &c.Expertise); err != nil {
			return nil, err
		}
		if department != nil {
			c.Department = *department
		}
		if team != nil {
			c.Team = *team
		}
		c.Skills = make(map[string]agents.SkillDetail)
		candidates = append(candidates, &c)
		byID[c.UserID] = &c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.UserID)
	}

	skillRows, err := r.db.Query(ctx,
		`SELECT user_id, skill, proficiency_level, evidence_count
		 FROM expertise_mapping WHERE user_id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer skillRows.Close()

	for skillRows.Next() {
		var userID int64
		var skill, proficiency string
		var evidence int
		if err := skillRows.Scan(&userID, &skill, &proficiency, &evidence); err != nil {
			return nil, err
		}
		c, ok := byID[userID]
		if !ok {
			continue
		}
		c.Skills[skill] = agents.SkillDetail{Proficiency: proficiency, EvidenceCount: evidence}
		c.TotalEvidence += evidence
	}
	return candidates, skillRows.Err()
}

func scanUserRows(rows pgx.Rows) ([]*domain.User, error) {
	var users []*domain.User
	for rows.Next() {
		var u domain.User
		var department, team *string
		if err := rows.Scan(&u.ID, &u.EmployeeID, &u.Email, &u.FirstName, &u.LastName, &department, &team, &u.Expertise, &u.Reputation, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		if department != nil {
			u.Department = *department
		}
		if team != nil {
			u.Team = *team
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
