package entities

import (
	"time"
)

// BookingEventType identifies what happened to a booking
type BookingEventType string

const (
	BookingEventCreated   BookingEventType = "booking.created"
	BookingEventCancelled BookingEventType = "booking.cancelled"
	BookingEventCompleted BookingEventType = "booking.completed"
)

// BookingEvent is published on the event bus whenever the ledger
// changes, so dashboards can refresh without polling.
type BookingEvent struct {
	ID          string           `json:"id"`
	Type        BookingEventType `json:"type"`
	BookingID   string           `json:"booking_id"`
	DoctorID    string           `json:"doctor_id"`
	HospitalID  string           `json:"hospital_id"`
	PatientID   string           `json:"patient_id"`
	SlotTime    string           `json:"slot_time"`
	TokenNumber int              `json:"token_number"`
	OccurredAt  time.Time        `json:"occurred_at"`
}
