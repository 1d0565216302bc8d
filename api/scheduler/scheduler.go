package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tlatelolco/crime-incidence-api/geo"
)

// Scheduler runs the periodic background jobs. Its only job today is
// keeping the street geometry cache warm so map-data requests never
// block on Overpass.
type Scheduler struct {
	cron    *cron.Cron
	Streets *geo.CachedSource
}

// NewScheduler creates a new scheduler instance
func NewScheduler(streets *geo.CachedSource) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		Streets: streets,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Refresh street geometry hourly, on the hour
	_, err := s.cron.AddFunc("0 * * * *", s.refreshStreets)
	if err != nil {
		zap.S().Errorw("failed to register street refresh job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Street geometry scheduler started")

	// Warm the cache so the first map-data request after boot does not
	// pay the Overpass round trip.
	go s.refreshStreets()
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Street geometry scheduler stopped")
}

func (s *Scheduler) refreshStreets() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.Streets.Refresh(ctx); err != nil {
		zap.S().Warnw("street geometry refresh failed, keeping last good copy", "error", err)
		return
	}
	zap.S().Info("street geometry cache refreshed")
}
