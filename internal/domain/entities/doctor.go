package entities

import (
	"time"
)

// Doctor represents a doctor attached to a hospital
type Doctor struct {
	ID             string    `json:"id" db:"id"`
	HospitalID     string    `json:"hospital_id" db:"hospital_id"`
	Name           string    `json:"name" db:"name"`
	Speciality     string    `json:"speciality" db:"speciality"`
	Fee            int       `json:"fee" db:"fee"`
	AvailableToday bool      `json:"available_today" db:"available_today"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
