package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/askhub-io/askhub/internal/domain"
)

// AgentRepository persists agent suggestions, knowledge gaps, and discovered
// expertise.
type AgentRepository struct {
	db dbtx
}

func NewAgentRepository(pool *pgxpool.Pool) *AgentRepository {
	return &AgentRepository{db: pool}
}

func NewAgentRepositoryWithTx(tx pgx.Tx) *AgentRepository {
	return &AgentRepository{db: tx}
}

func (r *AgentRepository) CreateSuggestion(ctx context.Context, s *domain.Suggestion) (*domain.Suggestion, error) {
	s.CreatedAt = time.Now().UTC()
	err := r.db.QueryRow(ctx,
		`INSERT INTO agent_suggestions (agent_type, question_id, suggested_user_id, confidence_score, reasoning, accepted, created_at)
		 VALUES ($1, $2, $3, $4, $5, FALSE, $6)
		 RETURNING id`,
		s.AgentType, s.QuestionID, nullableID(s.SuggestedUserID), s.Confidence, nullableString(s.Reasoning), s.CreatedAt,
	).Scan(&s.ID)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *AgentRepository) GetSuggestion(ctx context.Context, id int64) (*domain.Suggestion, error) {
	var s domain.Suggestion
	var suggestedUserID *int64
	var reasoning *string
	err := r.db.QueryRow(ctx,
		`SELECT id, agent_type, question_id, suggested_user_id, confidence_score, reasoning, accepted, created_at
		 FROM agent_suggestions WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.AgentType, &s.QuestionID, &suggestedUserID, &s.Confidence, &reasoning, &s.Accepted, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSuggestionNotFound
		}
		return nil, err
	}
	if suggestedUserID != nil {
		s.SuggestedUserID = *suggestedUserID
	}
	if reasoning != nil {
		s.Reasoning = *reasoning
	}
	return &s, nil
}

func (r *AgentRepository) ListSuggestionsByQuestion(ctx context.Context, questionID int64) ([]*domain.Suggestion, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, agent_type, question_id, suggested_user_id, confidence_score, reasoning, accepted, created_at
		 FROM agent_suggestions WHERE question_id = $1
		 ORDER BY confidence_score DESC, id ASC`,
		questionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSuggestionRows(rows)
}

func (r *AgentRepository) UpdateSuggestionAccepted(ctx context.Context, id int64, accepted bool) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE agent_suggestions SET accepted = $1 WHERE id = $2`,
		accepted, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrSuggestionNotFound
	}
	return nil
}

// MarkAnalyzed stamps a question as having completed an orchestration run,
// whether or not any agent cleared the confidence gate. The backfill worker
// only picks up questions without this stamp.
func (r *AgentRepository) MarkAnalyzed(ctx context.Context, questionID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE questions SET analyzed_at = $1 WHERE id = $2`,
		time.Now().UTC(), questionID,
	)
	return err
}

// SuggestionStats aggregates acceptance counts per agent type.
type SuggestionStats struct {
	AgentType         string  `json:"agent_type"`
	Total             int     `json:"total"`
	Accepted          int     `json:"accepted"`
	AverageConfidence float64 `json:"average_confidence"`
}

func (r *AgentRepository) SuggestionStats(ctx context.Context) ([]*SuggestionStats, error) {
	rows, err := r.db.Query(ctx,
		`SELECT agent_type, COUNT(*), COUNT(*) FILTER (WHERE accepted), COALESCE(AVG(confidence_score), 0)
		 FROM agent_suggestions
		 GROUP BY agent_type
		 ORDER BY agent_type`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []*SuggestionStats
	for rows.Next() {
		var s SuggestionStats
		if err := rows.Scan(&s.AgentType, &s.Total, &s.Accepted, &s.AverageConfidence); err != nil {
			return nil, err
		}
		stats = append(stats, &s)
	}
	return stats, rows.Err()
}

// UpsertGap inserts a gap or, when the title already exists, bumps its
// frequency. The stored priority and status are kept: repeated sightings do
// not re-triage or reopen a gap someone already addressed.
func (r *AgentRepository) UpsertGap(ctx context.Context, gap *domain.KnowledgeGap) (*domain.KnowledgeGap, error) {
	now := time.Now().UTC()
	if gap.Status == "" {
		gap.Status = domain.GapStatusOpen
	}

	var stored domain.KnowledgeGap
	var description *string
	var assignedTo *int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO knowledge_gaps (title, description, frequency, priority, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (title) DO UPDATE SET
		   frequency = knowledge_gaps.frequency + 1,
		   updated_at = EXCLUDED.updated_at
		 RETURNING id, title, description, frequency, priority, status, assigned_to, created_at, updated_at`,
		gap.Title, nullableString(gap.Description), maxInt(gap.Frequency, 1), gap.Priority, gap.Status, now,
	).Scan(&stored.ID, &stored.Title, &description, &stored.Frequency, &stored.Priority, &stored.Status, &assignedTo, &stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if description != nil {
		stored.Description = *description
	}
	if assignedTo != nil {
		stored.AssignedTo = *assignedTo
	}
	return &stored, nil
}

// FindSimilarGap looks a gap up by fuzzy title or description match. A miss
// returns (nil, nil).
func (r *AgentRepository) FindSimilarGap(ctx context.Context, title string) (*domain.KnowledgeGap, error) {
	var gap domain.KnowledgeGap
	var description *string
	var assignedTo *int64
	err := r.db.QueryRow(ctx,
		`SELECT id, title, description, frequency, priority, status, assigned_to, created_at, updated_at
		 FROM knowledge_gaps WHERE title ILIKE $1 OR description ILIKE $1
		 ORDER BY frequency DESC
		 LIMIT 1`,
		"%"+title+"%",
	).Scan(&gap.ID, &gap.Title, &description, &gap.Frequency, &gap.Priority, &gap.Status, &assignedTo, &gap.CreatedAt, &gap.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if description != nil {
		gap.Description = *description
	}
	if assignedTo != nil {
		gap.AssignedTo = *assignedTo
	}
	return &gap, nil
}

func (r *AgentRepository) ListGaps(ctx context.Context, status domain.GapStatus, limit int) ([]*domain.KnowledgeGap, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, title, description, frequency, priority, status, assigned_to, created_at, updated_at
	          FROM knowledge_gaps`
	args := []any{limit}
	if status != "" {
		query += ` WHERE status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY frequency DESC, updated_at DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gaps []*domain.KnowledgeGap
	for rows.Next() {
		var gap domain.KnowledgeGap
		var description *string
		var assignedTo *int64
		if err := rows.Scan(&gap.ID, &gap.Title, &description, &gap.Frequency, &gap.Priority, &gap.Status, &assignedTo, &gap.CreatedAt, &gap.UpdatedAt); err != nil {
			return nil, err
		}
		if description != nil {
			gap.Description = *description
		}
		if assignedTo != nil {
			gap.AssignedTo = *assignedTo
		}
		gaps = append(gaps, &gap)
	}
	return gaps, rows.Err()
}

// UpsertExpertise records a skill for a user. Evidence counts only grow, and
// the stored proficiency changes only when the new observation carries more
// evidence than the stored one.
func (r *AgentRepository) UpsertExpertise(ctx context.Context, entry *domain.ExpertiseEntry) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO expertise_mapping (user_id, skill, proficiency_level, evidence_count, last_updated)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, skill) DO UPDATE SET
		   proficiency_level = CASE
		     WHEN expertise_mapping.evidence_count < EXCLUDED.evidence_count THEN EXCLUDED.proficiency_level
		     ELSE expertise_mapping.proficiency_level
		   END,
		   evidence_count = GREATEST(expertise_mapping.evidence_count, EXCLUDED.evidence_count),
		   last_updated = EXCLUDED.last_updated`,
		entry.UserID, entry.Skill, entry.Proficiency, entry.EvidenceCount, time.Now().UTC(),
	)
	return err
}

func (r *AgentRepository) ListExpertise(ctx context.Context, userID int64) ([]*domain.ExpertiseEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, skill, proficiency_level, evidence_count, last_updated
		 FROM expertise_mapping WHERE user_id = $1
		 ORDER BY evidence_count DESC, skill ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.ExpertiseEntry
	for rows.Next() {
		var e domain.ExpertiseEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Skill, &e.Proficiency, &e.EvidenceCount, &e.LastUpdated); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func scanSuggestionRows(rows pgx.Rows) ([]*domain.Suggestion, error) {
	var suggestions []*domain.Suggestion
	for rows.Next() {
		var s domain.Suggestion
		var suggestedUserID *int64
		var reasoning *string
		if err := rows.Scan(&s.ID, &s.AgentType, &s.QuestionID, &suggestedUserID, &s.Confidence, &reasoning, &s.Accepted, &s.CreatedAt); err != nil {
			return nil, err
		}
		if suggestedUserID != nil {
			s.SuggestedUserID = *suggestedUserID
		}
		if reasoning != nil {
			s.Reasoning = *reasoning
		}
		suggestions = append(suggestions, &s)
	}
	return suggestions, rows.Err()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
