package domain

import (
	"fmt"
	"time"
)

// User represents a member of the knowledge-sharing community.
type User struct {
	ID         int64
	EmployeeID string
	Email      string
	FirstName  string
	LastName   string
	Department string
	Team       string
	Expertise  []string
	Reputation int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// ValidateUser validates a User instance
func ValidateUser(u *User) error {
	if u == nil {
		return fmt.Errorf("user cannot be nil")
	}

	if u.EmployeeID == "" {
		return fmt.Errorf("user EmployeeID is required")
	}

	if u.Email == "" {
		return fmt.Errorf("user Email is required")
	}

	if u.FirstName == "" || u.LastName == "" {
		return fmt.Errorf("user name is required")
	}

	if u.Reputation < 0 {
		return fmt.Errorf("user Reputation cannot be negative")
	}

	return nil
}
