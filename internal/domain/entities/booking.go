package entities

import (
	"time"
)

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "BOOKED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

// Booking represents one patient's claim on one doctor's time-of-day
// slot on one calendar date. The slot label is stored next to the
// combined timestamp because the label, not the timestamp, is the
// booking key.
type Booking struct {
	ID            string        `json:"id" db:"id"`
	DoctorID      string        `json:"doctor_id" db:"doctor_id"`
	HospitalID    string        `json:"hospital_id" db:"hospital_id"`
	PatientID     string        `json:"patient_id" db:"patient_id"`
	AppointmentAt time.Time     `json:"appointment_at" db:"appointment_at"`
	SlotTime      string        `json:"slot_time" db:"slot_time"`
	TokenNumber   int           `json:"token_number" db:"token_number"`
	Status        BookingStatus `json:"status" db:"status"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// BookingListItem is a booking joined with display fields for patient
// and admin listings.
type BookingListItem struct {
	Booking
	DoctorName       string `json:"doctor_name" db:"doctor_name"`
	DoctorSpeciality string `json:"doctor_speciality" db:"doctor_speciality"`
	HospitalName     string `json:"hospital_name" db:"hospital_name"`
	PatientName      string `json:"patient_name,omitempty" db:"patient_name"`
	PatientEmail     string `json:"patient_email,omitempty" db:"patient_email"`
}

// HospitalPatient is one row of the admin patient roster: a patient
// the hospital has seen, with their most recent non-cancelled booking.
type HospitalPatient struct {
	PatientID   string    `json:"patient_id" db:"patient_id"`
	Name        string    `json:"name" db:"name"`
	Email       string    `json:"email" db:"email"`
	LastVisit   time.Time `json:"last_visit" db:"last_visit"`
	TokenNumber int       `json:"token_number" db:"token_number"`
}

// DashboardStats summarizes a hospital's day for the admin dashboard.
type DashboardStats struct {
	Doctors       int `json:"doctors"`
	NewDoctors    int `json:"new_doctors"`
	BookingsToday int `json:"bookings_today"`
	PatientsToday int `json:"patients_today"`
}
