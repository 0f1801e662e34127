package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/askhub-io/askhub/internal/agents"
	"github.com/askhub-io/askhub/internal/domain"
)

type AnswerRepository struct {
	db dbtx
}

func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{db: pool}
}

func NewAnswerRepositoryWithTx(tx pgx.Tx) *AnswerRepository {
	return &AnswerRepository{db: tx}
}

func (r *AnswerRepository) Create(ctx context.Context, a *domain.Answer) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	return r.db.QueryRow(ctx,
		`INSERT INTO answers (content, question_id, author_id, is_accepted, vote_count, created_at, updated_at)
		 VALUES ($1, $2, $3, FALSE, 0, $4, $5)
		 RETURNING id`,
		a.Content, a.QuestionID, a.AuthorID, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
}

func (r *AnswerRepository) GetByID(ctx context.Context, id int64) (*domain.Answer, error) {
	var a domain.Answer
	err := r.db.QueryRow(ctx,
		`SELECT id, content, question_id, author_id, is_accepted, vote_count, created_at, updated_at
		 FROM answers WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Content, &a.QuestionID, &a.AuthorID, &a.IsAccepted, &a.VoteCount, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAnswerNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AnswerRepository) ListByQuestion(ctx context.Context, questionID int64) ([]*domain.Answer, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, content, question_id, author_id, is_accepted, vote_count, created_at, updated_at
		 FROM answers WHERE question_id = $1
		 ORDER BY is_accepted DESC, vote_count DESC, created_at ASC`,
		questionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []*domain.Answer
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.ID, &a.Content, &a.QuestionID, &a.AuthorID, &a.IsAccepted, &a.VoteCount, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, &a)
	}
	return answers, rows.Err()
}

// Accept marks one answer accepted and clears the flag on the question's
// other answers so at most one answer is accepted at a time.
func (r *AnswerRepository) Accept(ctx context.Context, questionID, answerID int64) error {
	if _, err := r.db.Exec(ctx,
		`UPDATE answers SET is_accepted = FALSE, updated_at = $1 WHERE question_id = $2 AND id <> $3`,
		time.Now().UTC(), questionID, answerID,
	); err != nil {
		return err
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE answers SET is_accepted = TRUE, updated_at = $1 WHERE question_id = $2 AND id = $3`,
		time.Now().UTC(), questionID, answerID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrAnswerNotFound
	}
	return nil
}

func (r *AnswerRepository) AdjustVoteCount(ctx context.Context, id int64, delta int) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE answers SET vote_count = vote_count + $1 WHERE id = $2`,
		delta, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrAnswerNotFound
	}
	return nil
}

// AcceptedAnswers loads a user's accepted answers for expertise analysis.
func (r *AnswerRepository) AcceptedAnswers(ctx context.Context, userID int64, limit int) ([]*agents.AcceptedAnswer, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, question_id, content
		 FROM answers WHERE author_id = $1 AND is_accepted = TRUE
		 ORDER BY updated_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []*agents.AcceptedAnswer
	for rows.Next() {
		var a agents.AcceptedAnswer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Content); err != nil {
			return nil, err
		}
		answers = append(answers, &a)
	}
	return answers, rows.Err()
}
