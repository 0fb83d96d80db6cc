package repositories

import (
	"context"
)

// DoctorDocument is the denormalized shape indexed for search. Hospital
// fields ride along so speciality searches can group by hospital
// without a database round trip.
type DoctorDocument struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Speciality       string `json:"speciality"`
	HospitalID       string `json:"hospital_id"`
	HospitalName     string `json:"hospital_name"`
	HospitalEmail    string `json:"hospital_email"`
	HospitalLocation string `json:"hospital_location"`
}

// DoctorSearchRepository defines the interface for the doctor search index
type DoctorSearchRepository interface {
	// InitSchema ensures the search collection exists
	InitSchema(ctx context.Context) error

	// Index indexes or re-indexes a doctor document
	Index(ctx context.Context, doc *DoctorDocument) error

	// Delete removes a doctor from the index
	Delete(ctx context.Context, id string) error

	// Search returns doctor documents matching a speciality, optionally
	// narrowed to a hospital location.
	Search(ctx context.Context, speciality, location string) ([]*DoctorDocument, error)
}
