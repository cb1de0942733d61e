package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// CanAuthor is true for roles allowed to create courses and see unpublished ones.
func (r Role) CanAuthor() bool {
	return r == RoleInstructor || r == RoleAdmin
}

type User struct {
	ID        uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string                      `gorm:"not null;size:100" json:"name"`
	Email     string                      `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Password  string                      `gorm:"not null" json:"-"`
	Role      Role                        `gorm:"size:20;not null;index" json:"role"`
	Interests datatypes.JSONSlice[string] `json:"interests"`
	CreatedAt time.Time                   `json:"createdAt"`
	UpdatedAt time.Time                   `json:"updatedAt"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CleanTags trims entries and drops blanks and repeats, keeping first-seen order.
func CleanTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// UserSummary is the outward identity of a user.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  Role      `json:"role,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// EnrollmentEntry is one line of a user's enrollment list, derived from a Progress row.
type EnrollmentEntry struct {
	Course     CourseSummary `json:"course"`
	EnrolledAt time.Time     `json:"enrolledAt"`
	Progress   float64       `json:"progress"`
	Completed  bool          `json:"completed"`
}

// Profile is the full user view returned by /auth/me and /users/profile.
type Profile struct {
	User
	EnrolledCourses []EnrollmentEntry `json:"enrolledCourses"`
}
