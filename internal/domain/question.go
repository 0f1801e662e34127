package domain

import (
	"fmt"
	"time"
)

// QuestionStatus represents the lifecycle state of a question
type QuestionStatus string

const (
	QuestionStatusOpen     QuestionStatus = "open"
	QuestionStatusAnswered QuestionStatus = "answered"
	QuestionStatusClosed   QuestionStatus = "closed"
)

// Question represents a question posted by a user. Title, content and tags are
// immutable once the question has been scored; only the vote and view counters
// change afterwards.
type Question struct {
	ID        int64
	Title     string
	Content   string
	AuthorID  int64
	Status    QuestionStatus
	Tags      []string
	ViewCount int
	VoteCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Answer represents an answer to a question.
type Answer struct {
	ID         int64
	QuestionID int64
	AuthorID   int64
	Content    string
	IsAccepted bool
	VoteCount  int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// VoteType represents the direction of a vote
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// Tag represents a topic label attached to questions.
type Tag struct {
	ID          int64
	Name        string
	Category    string
	Description string
	CreatedAt   time.Time
}

// TagWithCount is a tag annotated with how many questions carry it.
type TagWithCount struct {
	Tag
	QuestionCount int
}

// ValidateQuestion validates a Question instance
func ValidateQuestion(q *Question) error {
	if q == nil {
		return fmt.Errorf("question cannot be nil")
	}

	if q.Title == "" {
		return fmt.Errorf("question Title is required")
	}

	if q.Content == "" {
		return fmt.Errorf("question Content is required")
	}

	if q.AuthorID == 0 {
		return fmt.Errorf("question AuthorID is required")
	}

	if !isValidQuestionStatus(q.Status) {
		return fmt.Errorf("question Status is invalid: %s", q.Status)
	}

	return nil
}

// ValidateAnswer validates an Answer instance
func ValidateAnswer(a *Answer) error {
	if a == nil {
		return fmt.Errorf("answer cannot be nil")
	}

	if a.Content == "" {
		return fmt.Errorf("answer Content is required")
	}

	if a.QuestionID == 0 {
		return fmt.Errorf("answer QuestionID is required")
	}

	if a.AuthorID == 0 {
		return fmt.Errorf("answer AuthorID is required")
	}

	return nil
}

func isValidQuestionStatus(s QuestionStatus) bool {
	switch s {
	case QuestionStatusOpen, QuestionStatusAnswered, QuestionStatusClosed:
		return true
	default:
		return false
	}
}

func IsValidVoteType(v VoteType) bool {
	return v == VoteUp || v == VoteDown
}
