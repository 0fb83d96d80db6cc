package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/carepoint-health/appointments/backend/internal/domain/repositories"
	tsclient "github.com/carepoint-health/appointments/backend/internal/infrastructure/clients/typesense"
)

const collectionName = "doctors"

// TypesenseAdapter implements doctor search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements DoctorSearchRepository
var _ repositories.DoctorSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	// Check if collection exists
	_, err := a.client.Client().Collection(collectionName).Retrieve(ctx)
	if err == nil {
		return nil // Collection exists
	}

	schema := &api.CollectionSchema{
		Name: collectionName,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "speciality", Type: "string", Facet: pointer.True()},
			{Name: "hospital_id", Type: "string"},
			{Name: "hospital_name", Type: "string"},
			{Name: "hospital_email", Type: "string"},
			{Name: "hospital_location", Type: "string", Facet: pointer.True()},
		},
	}

	_, err = a.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	return nil
}

// Index indexes a doctor document
func (a *TypesenseAdapter) Index(ctx context.Context, doc *repositories.DoctorDocument) error {
	document := map[string]interface{}{
		"id":                doc.ID,
		"name":              doc.Name,
		"speciality":        doc.Speciality,
		"hospital_id":       doc.HospitalID,
		"hospital_name":     doc.HospitalName,
		"hospital_email":    doc.HospitalEmail,
		"hospital_location": doc.HospitalLocation,
	}

	_, err := a.client.Client().Collection(collectionName).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index doctor: %w", err)
	}

	return nil
}

// Delete removes a doctor from index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(collectionName).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete doctor from index: %w", err)
	}
	return nil
}

// Search finds doctor documents by speciality, optionally narrowed to
// a hospital location
func (a *TypesenseAdapter) Search(ctx context.Context, speciality, location string) ([]*repositories.DoctorDocument, error) {
	filterBy := fmt.Sprintf("speciality:=%s", strings.TrimSpace(speciality))

	searchParams := &api.SearchCollectionParams{
		Q:        pointer.String(location),
		QueryBy:  pointer.String("hospital_location"),
		FilterBy: pointer.String(filterBy),
		PerPage:  pointer.Int(250),
	}
	if location == "" {
		searchParams.Q = pointer.String("*")
	}

	result, err := a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search doctors: %w", err)
	}

	docs := []*repositories.DoctorDocument{}
	if result.Hits == nil {
		return docs, nil
	}
	for _, hit := range *result.Hits {
		raw := *hit.Document

		doc := &repositories.DoctorDocument{}
		if val, ok := raw["id"].(string); ok {
			doc.ID = val
		}
		if val, ok := raw["name"].(string); ok {
			doc.Name = val
		}
		if val, ok := raw["speciality"].(string); ok {
			doc.Speciality = val
		}
		if val, ok := raw["hospital_id"].(string); ok {
			doc.HospitalID = val
		}
		if val, ok := raw["hospital_name"].(string); ok {
			doc.HospitalName = val
		}
		if val, ok := raw["hospital_email"].(string); ok {
			doc.HospitalEmail = val
		}
		if val, ok := raw["hospital_location"].(string); ok {
			doc.HospitalLocation = val
		}

		docs = append(docs, doc)
	}

	return docs, nil
}
