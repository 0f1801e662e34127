package domain

import (
	"fmt"
	"time"
)

// GapPriority represents the urgency of a knowledge gap
type GapPriority string

const (
	GapPriorityLow    GapPriority = "low"
	GapPriorityMedium GapPriority = "medium"
	GapPriorityHigh   GapPriority = "high"
)

// GapStatus represents the lifecycle of a knowledge gap
type GapStatus string

const (
	GapStatusOpen      GapStatus = "open"
	GapStatusAddressed GapStatus = "addressed"
)

// Proficiency represents the skill level recorded in the expertise mapping
type Proficiency string

const (
	ProficiencyBeginner     Proficiency = "beginner"
	ProficiencyIntermediate Proficiency = "intermediate"
	ProficiencyExpert       Proficiency = "expert"
)

// Suggestion is an agent recommendation persisted for a question. The accepted
// flag is the only field mutated after creation (via user feedback).
type Suggestion struct {
	ID              int64
	AgentType       string
	QuestionID      int64
	SuggestedUserID int64
	Confidence      float64
	Reasoning       string
	Accepted        bool
	CreatedAt       time.Time
}

// ExpertiseEntry records discovered expertise for a user. Evidence counts are
// monotonically non-decreasing: merges take the greatest of old and new.
type ExpertiseEntry struct {
	ID            int64
	UserID        int64
	Skill         string
	Proficiency   Proficiency
	EvidenceCount int
	LastUpdated   time.Time
}

// KnowledgeGap records a recurring documentation or guidance gap, upserted by
// unique title with frequency incrementing on repeat detection.
type KnowledgeGap struct {
	ID          int64
	Title       string
	Description string
	Frequency   int
	Priority    GapPriority
	Status      GapStatus
	AssignedTo  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidateSuggestion validates a Suggestion instance
func ValidateSuggestion(s *Suggestion) error {
	if s == nil {
		return fmt.Errorf("suggestion cannot be nil")
	}

	if s.AgentType == "" {
		return fmt.Errorf("suggestion AgentType is required")
	}

	if s.QuestionID == 0 {
		return fmt.Errorf("suggestion QuestionID is required")
	}

	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("suggestion Confidence must be in [0,1]: %f", s.Confidence)
	}

	return nil
}

// ValidateKnowledgeGap validates a KnowledgeGap instance
func ValidateKnowledgeGap(g *KnowledgeGap) error {
	if g == nil {
		return fmt.Errorf("knowledge gap cannot be nil")
	}

	if g.Title == "" {
		return fmt.Errorf("knowledge gap Title is required")
	}

	if !IsValidGapPriority(g.Priority) {
		return fmt.Errorf("knowledge gap Priority is invalid: %s", g.Priority)
	}

	if g.Frequency < 1 {
		return fmt.Errorf("knowledge gap Frequency must be at least 1")
	}

	return nil
}

func IsValidGapPriority(p GapPriority) bool {
	switch p {
	case GapPriorityLow, GapPriorityMedium, GapPriorityHigh:
		return true
	default:
		return false
	}
}

func IsValidProficiency(p Proficiency) bool {
	switch p {
	case ProficiencyBeginner, ProficiencyIntermediate, ProficiencyExpert:
		return true
	default:
		return false
	}
}
