package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/carepoint-health/appointments/backend/internal/domain/repositories"
	"github.com/carepoint-health/appointments/backend/internal/infrastructure/observability"
)

// CompletionService periodically sweeps the ledger, moving bookings
// whose appointment time has passed from BOOKED to COMPLETED
type CompletionService struct {
	repo     repositories.BookingRepository
	schedule string
	cron     *cron.Cron
}

// NewCompletionService creates a new completion sweep service
func NewCompletionService(repo repositories.BookingRepository, schedule string) *CompletionService {
	return &CompletionService{
		repo:     repo,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start registers the sweep with the scheduler and starts it
func (s *CompletionService) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop stops the scheduler, waiting for a running sweep to finish
func (s *CompletionService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// sweep runs one completion pass
func (s *CompletionService) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := observability.GetLogger()

	completed, err := s.repo.CompleteElapsed(ctx, time.Now().UTC())
	if err != nil {
		logger.Error().Err(err).Msg("completion sweep failed")
		return
	}
	if completed > 0 {
		logger.Info().Int64("completed", completed).Msg("completion sweep marked elapsed bookings")
	}
}
