package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/askhub-io/askhub/internal/domain"
)

type TagRepository struct {
	db dbtx
}

func NewTagRepository(pool *pgxpool.Pool) *TagRepository {
	return &TagRepository{db: pool}
}

func NewTagRepositoryWithTx(tx pgx.Tx) *TagRepository {
	return &TagRepository{db: tx}
}

func (r *TagRepository) Create(ctx context.Context, t *domain.Tag) error {
	t.CreatedAt = time.Now().UTC()
	err := r.db.QueryRow(ctx,
		`INSERT INTO tags (name, category, description, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		t.Name, t.Category, nullableString(t.Description), t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTagAlreadyExists
		}
		return err
	}
	return nil
}

func (r *TagRepository) GetByName(ctx context.Context, name string) (*domain.Tag, error) {
	var t domain.Tag
	var description *string
	err := r.db.QueryRow(ctx,
		`SELECT id, name, category, description, created_at FROM tags WHERE name = $1`,
		name,
	).Scan(&t.ID, &t.Name, &t.Category, &description, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTagNotFound
		}
		return nil, err
	}
	if description != nil {
		t.Description = *description
	}
	return &t, nil
}

// List returns all tags with their question counts, most used first.
func (r *TagRepository) List(ctx context.Context) ([]*domain.TagWithCount, error) {
	rows, err := r.db.Query(ctx,
		`SELECT t.id, t.name, t.category, t.description, t.created_at, COUNT(qt.question_id)
		 FROM tags t
		 LEFT JOIN question_tags qt ON qt.tag_id = t.id
		 GROUP BY t.id
		 ORDER BY COUNT(qt.question_id) DESC, t.name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.TagWithCount
	for rows.Next() {
		var t domain.TagWithCount
		var description *string
		if err := rows.Scan(&t.ID, &t.Name, &t.Category, &description, &t.CreatedAt, &t.QuestionCount); err != nil {
			return nil, err
		}
		if description != nil {
			t.Description = *description
		}
		tags = append(tags, &t)
	}
	return tags, rows.Err()
}
