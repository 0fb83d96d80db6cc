package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
	"github.com/carepoint-health/appointments/backend/internal/domain/providers"
	"github.com/carepoint-health/appointments/backend/internal/domain/repositories"
)

// CachedDoctorAdapter wraps DoctorAdapter with caching. Counts stay
// uncached: the dashboard wants live numbers.
type CachedDoctorAdapter struct {
	adapter repositories.DoctorRepository
	cache   providers.CacheProvider
}

// NewCachedDoctorAdapter creates a new cached doctor adapter
func NewCachedDoctorAdapter(adapter repositories.DoctorRepository, cache providers.CacheProvider) repositories.DoctorRepository {
	return &CachedDoctorAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// Cache TTLs (in seconds)
const (
	doctorByIDTTL  = 300 // 5 minutes for single doctor
	doctorsListTTL = 180 // 3 minutes for hospital rosters
)

func doctorCacheKey(id string) string {
	return fmt.Sprintf("doctor:%s", id)
}

func doctorsListCacheKey(hospitalID string) string {
	return fmt.Sprintf("doctors:list:%s", hospitalID)
}

// GetByID retrieves a doctor by ID with caching
func (a *CachedDoctorAdapter) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	cacheKey := doctorCacheKey(id)

	// Try to get from cache first
	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var doctor entities.Doctor
		if err := json.Unmarshal(cached, &doctor); err == nil {
			return &doctor, nil
		}
		// If unmarshal fails, continue to fetch from DB
		log.Printf("Failed to unmarshal cached doctor %s: %v", id, err)
	}

	// Cache miss - fetch from database
	doctor, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously to avoid blocking the response
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(doctor); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, doctorByIDTTL); err != nil {
				log.Printf("Failed to cache doctor %s: %v", id, err)
			}
		}
	}()

	return doctor, nil
}

// ListByHospital retrieves a hospital roster with caching
func (a *CachedDoctorAdapter) ListByHospital(ctx context.Context, hospitalID string) ([]*entities.Doctor, error) {
	cacheKey := doctorsListCacheKey(hospitalID)

	// Try to get from cache first
	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var doctors []*entities.Doctor
		if err := json.Unmarshal(cached, &doctors); err == nil {
			return doctors, nil
		}
		log.Printf("Failed to unmarshal cached doctors list: %v", err)
	}

	// Cache miss - fetch from database
	doctors, err := a.adapter.ListByHospital(ctx, hospitalID)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(doctors); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, doctorsListTTL); err != nil {
				log.Printf("Failed to cache doctors list: %v", err)
			}
		}
	}()

	return doctors, nil
}

// Create creates a doctor and invalidates the hospital roster cache
func (a *CachedDoctorAdapter) Create(ctx context.Context, doctor *entities.Doctor) error {
	err := a.adapter.Create(ctx, doctor)
	if err != nil {
		return err
	}

	// Invalidate list caches asynchronously
	go func() {
		bgCtx := context.Background()
		if err := a.cache.Delete(bgCtx, doctorsListCacheKey(doctor.HospitalID)); err != nil {
			log.Printf("Failed to invalidate doctors list cache: %v", err)
		}
	}()

	return nil
}

// CountByHospital counts the doctors of a hospital
func (a *CachedDoctorAdapter) CountByHospital(ctx context.Context, hospitalID string) (int, error) {
	return a.adapter.CountByHospital(ctx, hospitalID)
}

// CountByHospitalCreatedBetween counts doctors added in a time range
func (a *CachedDoctorAdapter) CountByHospitalCreatedBetween(ctx context.Context, hospitalID string, from, to time.Time) (int, error) {
	return a.adapter.CountByHospitalCreatedBetween(ctx, hospitalID, from, to)
}
