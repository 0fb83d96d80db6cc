package entities

import (
	"time"
)

// UserRole distinguishes patients from hospital admins
type UserRole string

const (
	UserRolePatient       UserRole = "PATIENT"
	UserRoleHospitalAdmin UserRole = "HOSPITAL_ADMIN"
)

// User represents an account in the identity store. Hospital admins
// carry their hospital affiliation; patients do not.
type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	HospitalID   *string   `json:"hospital_id,omitempty" db:"hospital_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
