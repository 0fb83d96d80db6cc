package entities

import (
	"time"
)

// Hospital represents a registered hospital
type Hospital struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Location  string    `json:"location" db:"location"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// HospitalSearchResult is a hospital enriched with the number of
// doctors matching a speciality search.
type HospitalSearchResult struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Location    string `json:"location"`
	DoctorCount int    `json:"doctor_count"`
}
