package entities

import (
	"time"
)

// Slot is a permanent, dateless time-of-day label a doctor offers for
// booking. Slots are never consumed; bookings reference the label.
type Slot struct {
	ID        string    `json:"id" db:"id"`
	DoctorID  string    `json:"doctor_id" db:"doctor_id"`
	TimeLabel string    `json:"time" db:"time_label"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Availability is a per-doctor-per-day boolean gate on whether bookings
// are offered that day. Absent rows mean unavailable.
type Availability struct {
	ID        string    `json:"id" db:"id"`
	DoctorID  string    `json:"doctor_id" db:"doctor_id"`
	Day       time.Time `json:"date" db:"day"`
	Available bool      `json:"available" db:"available"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
