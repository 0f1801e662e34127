package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/askhub-io/askhub/internal/domain"
)

type VoteRepository struct {
	db dbtx
}

func NewVoteRepository(pool *pgxpool.Pool) *VoteRepository {
	return &VoteRepository{db: pool}
}

func NewVoteRepositoryWithTx(tx pgx.Tx) *VoteRepository {
	return &VoteRepository{db: tx}
}

// RecordQuestionVote inserts a vote on a question. One vote per user per
// question; repeats return ErrDuplicateVote.
func (r *VoteRepository) RecordQuestionVote(ctx context.Context, userID, questionID int64, voteType domain.VoteType) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO votes (user_id, question_id, vote_type, created_at) VALUES ($1, $2, $3, $4)`,
		userID, questionID, voteType, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateVote
		}
		return err
	}
	return nil
}

// RecordAnswerVote inserts a vote on an answer. One vote per user per
// answer; repeats return ErrDuplicateVote.
func (r *VoteRepository) RecordAnswerVote(ctx context.Context, userID, answerID int64, voteType domain.VoteType) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO votes (user_id, answer_id, vote_type, created_at) VALUES ($1, $2, $3, $4)`,
		userID, answerID, voteType, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateVote
		}
		return err
	}
	return nil
}
