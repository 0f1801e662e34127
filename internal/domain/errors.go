package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrInvalidPriority      = NewDomainError(ErrCodeValidation, "invalid knowledge gap priority")
	ErrInvalidProficiency   = NewDomainError(ErrCodeValidation, "invalid proficiency level")
	ErrInvalidVoteType      = NewDomainError(ErrCodeValidation, "invalid vote type")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrUserNotFound       = NewDomainError(ErrCodeNotFound, "user not found")
	ErrQuestionNotFound   = NewDomainError(ErrCodeNotFound, "question not found")
	ErrAnswerNotFound     = NewDomainError(ErrCodeNotFound, "answer not found")
	ErrTagNotFound        = NewDomainError(ErrCodeNotFound, "tag not found")
	ErrSuggestionNotFound = NewDomainError(ErrCodeNotFound, "agent suggestion not found")
	ErrGapNotFound        = NewDomainError(ErrCodeNotFound, "knowledge gap not found")
)

// Already exists errors
var (
	ErrUserAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "user already exists")
	ErrTagAlreadyExists  = NewDomainError(ErrCodeAlreadyExists, "tag already exists")
	ErrDuplicateVote     = NewDomainError(ErrCodeAlreadyExists, "user already voted on this item")
)

// Authorization errors
var (
	ErrInvalidSession = NewDomainError(ErrCodeUnauthorized, "invalid session token")
	ErrNotAuthor      = NewDomainError(ErrCodeForbidden, "only the question author may do this")
)

// Operation errors
var (
	ErrQuestionClosed = NewDomainError(ErrCodeInvalidOperation, "question is closed")
)
