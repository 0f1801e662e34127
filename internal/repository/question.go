package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/askhub-io/askhub/internal/agents"
	"github.com/askhub-io/askhub/internal/domain"
	"github.com/askhub-io/askhub/internal/pagination"
)

type QuestionRepository struct {
	db dbtx
}

func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{db: pool}
}

func NewQuestionRepositoryWithTx(tx pgx.Tx) *QuestionRepository {
	return &QuestionRepository{db: tx}
}

// QuestionFilter narrows question listings.
type QuestionFilter struct {
	Search string
	Tag    string
	Status domain.QuestionStatus
}

func (r *QuestionRepository) Create(ctx context.Context, q *domain.Question) error {
	now := time.Now().UTC()
	q.CreatedAt = now
	q.UpdatedAt = now
	if q.Status == "" {
		q.Status = domain.QuestionStatusOpen
	}

	err := r.db.QueryRow(ctx,
		`INSERT INTO questions (title, content, author_id, status, view_count, vote_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, 0, 0, $5, $6)
		 RETURNING id`,
		q.Title, q.Content, q.AuthorID, q.Status, q.CreatedAt, q.UpdatedAt,
	).Scan(&q.ID)
	if err != nil {
		return err
	}
	return r.setTags(ctx, q.ID, q.Tags)
}

// setTags upserts tags by name and replaces the question's tag links.
func (r *QuestionRepository) setTags(ctx context.Context, questionID int64, tags []string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM question_tags WHERE question_id = $1`, questionID); err != nil {
		return err
	}

	for _, name := range tags {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		var tagID int64
		err := r.db.QueryRow(ctx,
			`INSERT INTO tags (name, category, created_at) VALUES ($1, 'general', $2)
			 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			 RETURNING id`,
			name, time.Now().UTC(),
		).Scan(&tagID)
		if err != nil {
			return err
		}

		if _, err := r.db.Exec(ctx,
			`INSERT INTO question_tags (question_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			questionID, tagID,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (*domain.Question, error) {
	var q domain.Question
	err := r.db.QueryRow(ctx,
		`SELECT q.id, q.title, q.content, q.author_id, q.status, q.view_count, q.vote_count, q.created_at, q.updated_at,
		        COALESCE(array_agg(t.name) FILTER (WHERE t.name IS NOT NULL), '{}')
		 FROM questions q
		 LEFT JOIN question_tags qt ON qt.question_id = q.id
		 LEFT JOIN tags t ON t.id = qt.tag_id
		 WHERE q.id = $1
		 GROUP BY q.id`,
		id,
	).Scan(&q.ID, &q.Title, &q.Content, &q.AuthorID, &q.Status, &q.ViewCount, &q.VoteCount, &q.CreatedAt, &q.UpdatedAt, &q.Tags)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrQuestionNotFound
		}
		return nil, err
	}
	return &q, nil
}

// IncrementViewCount bumps the view counter without touching updated_at, so
// views never reorder listings.
func (r *QuestionRepository) IncrementViewCount(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE questions SET view_count = view_count + 1 WHERE id = $1`, id)
	return err
}

func (r *QuestionRepository) Update(ctx context.Context, q *domain.Question) error {
	q.UpdatedAt = time.Now().UTC()
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE questions SET title = $1, content = $2, status = $3, updated_at = $4 WHERE id = $5`,
		q.Title, q.Content, q.Status, q.UpdatedAt, q.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return r.setTags(ctx, q.ID, q.Tags)
}

func (r *QuestionRepository) Delete(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (r *QuestionRepository) UpdateStatus(ctx context.Context, id int64, status domain.QuestionStatus) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE questions SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (r *QuestionRepository) AdjustVoteCount(ctx context.Context, id int64, delta int) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE questions SET vote_count = vote_count + $1 WHERE id = $2`,
		delta, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

// ListWithCursor pages questions newest-updated first with optional search
// and tag filters.
func (r *QuestionRepository) ListWithCursor(ctx context.Context, filter QuestionFilter, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.Question], error) {
	if limit <= 0 {
		limit = 20
	}

	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conds = append(conds, fmt.Sprintf("(q.title ILIKE %s OR q.content ILIKE %s)", p, p))
	}
	if filter.Tag != "" {
		conds = append(conds, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM question_tags qt2 JOIN tags t2 ON t2.id = qt2.tag_id WHERE qt2.question_id = q.id AND t2.name = %s)`,
			arg(filter.Tag)))
	}
	if filter.Status != "" {
		conds = append(conds, "q.status = "+arg(string(filter.Status)))
	}
	if cursor != nil {
		conds = append(conds, fmt.Sprintf("(q.updated_at, q.id) < (%s, %s)", arg(cursor.Timestamp), arg(cursor.LastID)))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	query := fmt.Sprintf(
		`SELECT q.id, q.title, q.content, q.author_id, q.status, q.view_count, q.vote_count, q.created_at, q.updated_at,
		        COALESCE(array_agg(t.name) FILTER (WHERE t.name IS NOT NULL), '{}')
		 FROM questions q
		 LEFT JOIN question_tags qt ON qt.question_id = q.id
		 LEFT JOIN tags t ON t.id = qt.tag_id
		 %s
		 GROUP BY q.id
		 ORDER BY q.updated_at DESC, q.id DESC
		 LIMIT %s`,
		where, arg(limit+1))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanQuestionRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.UpdatedAt)
	}

	return &pagination.PageResult[*domain.Question]{
		Items:   items,
		Cursor:  nextCursor,
		HasMore: hasMore,
	}, nil
}

func (r *QuestionRepository) Recent(ctx context.Context, limit int) ([]*domain.Question, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(ctx,
		`SELECT q.id, q.title, q.content, q.author_id, q.status, q.view_count, q.vote_count, q.created_at, q.updated_at,
		        COALESCE(array_agg(t.name) FILTER (WHERE t.name IS NOT NULL), '{}')
		 FROM questions q
		 LEFT JOIN question_tags qt ON qt.question_id = q.id
		 LEFT JOIN tags t ON t.id = qt.tag_id
		 GROUP BY q.id
		 ORDER BY q.created_at DESC, q.id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestionRows(rows)
}

// SearchSimilar finds candidate duplicates: questions whose title or content
// matches any search term, most recent first.
func (r *QuestionRepository) SearchSimilar(ctx context.Context, excludeID int64, terms []string, limit int) ([]*agents.QuestionCandidate, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	patterns := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		patterns = append(patterns, "%"+t+"%")
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT q.id, q.title, q.content, u.first_name || ' ' || u.last_name, q.vote_count, q.view_count, q.created_at,
		        COALESCE(array_agg(t.name) FILTER (WHERE t.name IS NOT NULL), '{}')
		 FROM questions q
		 JOIN users u ON u.id = q.author_id
		 LEFT JOIN question_tags qt ON qt.question_id = q.id
		 LEFT JOIN tags t ON t.id = qt.tag_id
		 WHERE q.id <> $1 AND (q.title ILIKE ANY($2) OR q.content ILIKE ANY($2))
		 GROUP BY q.id, u.first_name, u.last_name
		 ORDER BY q.created_at DESC
		 LIMIT $3`,
		excludeID, patterns, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []*agents.QuestionCandidate
	for rows.Next() {
		var c agents.QuestionCandidate
		if err := rows.Scan(&c.ID, &c.Title, &c.Content, &c.Author, &c.VoteCount, &c.ViewCount, &c.CreatedAt, &c.Tags); err != nil {
			return nil, err
		}
		candidates = append(candidates, &c)
	}
	return candidates, rows.Err()
}

// Unanalyzed returns the oldest questions the orchestrator has not run over
// yet, for the backfill worker.
func (r *QuestionRepository) Unanalyzed(ctx context.Context, limit int) ([]*domain.Question, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(ctx,
		`SELECT q.id, q.title, q.content, q.author_id, q.status, q.view_count, q.vote_count, q.created_at, q.updated_at,
		        COALESCE(array_agg(t.name) FILTER (WHERE t.name IS NOT NULL), '{}')
		 FROM questions q
		 LEFT JOIN question_tags qt ON qt.question_id = q.id
		 LEFT JOIN tags t ON t.id = qt.tag_id
		 WHERE q.analyzed_at IS NULL
		 GROUP BY q.id
		 ORDER BY q.created_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestionRows(rows)
}

// AuthorHistory lists the author's prior questions and answers, newest first,
// for expertise analysis. Answer rows carry no title and no tags; their
// content still feeds the skill pattern matching.
func (r *QuestionRepository) AuthorHistory(ctx context.Context, userID int64, limit int) ([]*agents.Contribution, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, title, content, tags FROM (
		     SELECT q.id, q.title, q.content, q.created_at,
		            COALESCE(array_agg(t.name) FILTER (WHERE t.name IS NOT NULL), '{}') AS tags
		     FROM questions q
		     LEFT JOIN question_tags qt ON qt.question_id = q.id
		     LEFT JOIN tags t ON t.id = qt.tag_id
		     WHERE q.author_id = $1
		     GROUP BY q.id
		   UNION ALL
		     SELECT a.id, '', a.content, a.created_at, '{}'::text[]
		     FROM answers a
		     WHERE a.author_id = $1
		 ) contributions
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []*agents.Contribution
	for rows.Next() {
		var c agents.Contribution
		if err := rows.Scan(&c.ID, &c.Title, &c.Content, &c.Tags); err != nil {
			return nil, err
		}
		history = append(history, &c)
	}
	return history, rows.Err()
}

func scanQuestionRows(rows pgx.Rows) ([]*domain.Question, error) {
	var questions []*domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Title, &q.Content, &q.AuthorID, &q.Status, &q.ViewCount, &q.VoteCount, &q.CreatedAt, &q.UpdatedAt, &q.Tags); err != nil {
			return nil, err
		}
		questions = append(questions, &q)
	}
	return questions, rows.Err()
}
