package employee

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Gender values stored on an employee profile
const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
)

// Roles. Admins manage other employees' role and travel credit.
const (
	RoleEmployee = "EMPLOYEE"
	RoleAdmin    = "ADMIN"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleEmployee || role == RoleAdmin
}

// Employee is a registered user. Every employee may both offer and join rides.
type Employee struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Gender            string    `json:"gender,omitempty"`
	PhoneNumber       string    `json:"phone_number,omitempty"`
	ProfilePictureURL string    `json:"profile_picture_url,omitempty"`
	TravelCredit      float64   `json:"travel_credit"`
	Role              string    `json:"role"`
	// AverageRating is computed on read and never stored.
	AverageRating *float64  `json:"average_rating"`
	CreatedAt     time.Time `json:"created_at"`
}

// Repository interface
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*Employee, error)
}

var ErrEmployeeNotFound = errors.New("employee not found")

// IsFemale reports whether the profile gender is female.
func (e *Employee) IsFemale() bool {
	return strings.EqualFold(e.Gender, GenderFemale)
}

// IsAdmin reports whether the employee holds the admin role.
func (e *Employee) IsAdmin() bool {
	return strings.EqualFold(e.Role, RoleAdmin)
}

// HasEmail compares emails case-insensitively.
func (e *Employee) HasEmail(email string) bool {
	return strings.EqualFold(strings.TrimSpace(e.Email), strings.TrimSpace(email))
}
