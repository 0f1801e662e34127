package agents

import (
	"context"
	"time"

	"github.com/askhub-io/askhub/internal/domain"
)

// Agent type names used as result keys, log fields and the agent_type column.
const (
	AgentRouting      = "routing"
	AgentDuplicate    = "duplicate"
	AgentKnowledgeGap = "knowledge_gap"
	AgentExpertise    = "expertise"
)

// Agent is a scoring module implementing reason (produce a judgment) and act
// (persist/emit that judgment) over a perceived question.
type Agent interface {
	Name() string
	Reason(ctx context.Context, p *Perception) (*Result, error)
	Act(ctx context.Context, r *Result) (*Action, error)
}

// Result is a scorer's judgment: a confidence in [0,1], a human-readable
// reasoning string, and the agent-specific payload (at most one of the payload
// groups is populated, matching the producing agent).
type Result struct {
	AgentType  string    `json:"agent_type"`
	Confidence float64   `json:"confidence"`
	Reasoning  string    `json:"reasoning"`
	Timestamp  time.Time `json:"timestamp"`
	Cached     bool      `json:"cached,omitempty"`

	// routing
	Suggestions    []ExpertSuggestion `json:"suggestions,omitempty"`
	RequiredSkills []string           `json:"required_skills,omitempty"`

	// duplicate
	SimilarQuestions []SimilarQuestion `json:"similar_questions,omitempty"`

	// knowledge gap
	Gaps   []Gap             `json:"gaps,omitempty"`
	Impact *ImpactAssessment `json:"impact,omitempty"`

	// expertise
	Expertise []SkillEvidence `json:"expertise,omitempty"`

	// QuestionID links the result back to the scored question. Cached results
	// are cross-checked against it before reuse.
	QuestionID int64 `json:"question_id"`
}

// ExpertSuggestion is a routing candidate with its scored confidence.
type ExpertSuggestion struct {
	UserID       int64    `json:"user_id"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Email        string   `json:"email"`
	Department   string   `json:"department,omitempty"`
	Team         string   `json:"team,omitempty"`
	Reputation   int      `json:"reputation"`
	Confidence   float64  `json:"confidence"`
	Reasoning    string   `json:"reasoning"`
	SkillMatches []string `json:"skill_matches,omitempty"`
}

// SimilarQuestion is a duplicate candidate with its weighted similarity.
type SimilarQuestion struct {
	QuestionID int64     `json:"question_id"`
	Title      string    `json:"title"`
	Excerpt    string    `json:"excerpt"`
	Author     string    `json:"author,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	VoteCount  int       `json:"vote_count"`
	ViewCount  int       `json:"view_count"`
	CreatedAt  time.Time `json:"created_at"`
	Similarity float64   `json:"similarity"`
	Reasoning  string    `json:"reasoning"`
}

// Gap is a candidate knowledge gap detected from a question.
type Gap struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Type         string             `json:"type"`
	Priority     domain.GapPriority `json:"priority"`
	Frequency    int                `json:"frequency"`
	Recurring    bool               `json:"recurring"`
	Technologies []string           `json:"technologies,omitempty"`
}

// ImpactAssessment summarizes the severity of a gap analysis.
type ImpactAssessment struct {
	TotalGaps        int    `json:"total_gaps"`
	HighPriorityGaps int    `json:"high_priority_gaps"`
	RecurringGaps    int    `json:"recurring_gaps"`
	EstimatedImpact  string `json:"estimated_impact"`
}

// SkillEvidence is a merged expertise signal for one skill.
type SkillEvidence struct {
	UserID        int64              `json:"user_id"`
	Skill         string             `json:"skill"`
	Confidence    float64            `json:"confidence"`
	EvidenceCount int                `json:"evidence_count"`
	Proficiency   domain.Proficiency `json:"proficiency"`
	Sources       []string           `json:"sources,omitempty"`
}

// Action is the outcome of an agent's act() call.
type Action struct {
	Type      string    `json:"type"`
	Executed  bool      `json:"executed"`
	Timestamp time.Time `json:"timestamp"`

	Notifications    []Notification    `json:"notifications,omitempty"`
	Warning          string            `json:"warning,omitempty"`
	SimilarQuestions []SimilarQuestion `json:"similar_questions,omitempty"`
	CreatedGaps      []CreatedGap      `json:"created_gaps,omitempty"`
	TotalGaps        int               `json:"total_gaps,omitempty"`
	HighPriorityGaps int               `json:"high_priority_gaps,omitempty"`
	UpdatedExpertise []SkillEvidence   `json:"updated_expertise,omitempty"`
}

// Notification is a routing message for a suggested expert.
type Notification struct {
	UserID     int64   `json:"user_id"`
	Message    string  `json:"message"`
	Confidence float64 `json:"confidence"`
}

// CreatedGap references a knowledge gap row written by act().
type CreatedGap struct {
	ID        int64              `json:"id"`
	Title     string             `json:"title"`
	Priority  domain.GapPriority `json:"priority"`
	Frequency int                `json:"frequency"`
}

// clamp bounds a confidence value to [0,1].
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
