package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"autodealer/inventory/internal/config"
	"autodealer/inventory/internal/imagekey"
	"autodealer/inventory/internal/logging"
	"autodealer/inventory/internal/metrics"
	"autodealer/inventory/internal/storage"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically removes staged objects that were never committed or
// cleaned up.
type Sweeper struct {
	store   storage.FileStorage
	cfg     config.SweepConfig
	classes []string
	cron    *cron.Cron
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewSweeper validates the schedule and returns a stopped sweeper.
func NewSweeper(store storage.FileStorage, cfg config.SweepConfig, m *metrics.Metrics, logger *slog.Logger) (*Sweeper, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 1h"
	}

	s := &Sweeper{
		store:   store,
		cfg:     cfg,
		classes: []string{imagekey.ClassCars, imagekey.ClassParts},
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		metrics: m,
		logger:  logging.OrDiscard(logger).With("component", "sweeper"),
		now:     time.Now,
	}
	if _, err := s.cron.AddFunc(cfg.Schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

// Start begins the schedule. It is a no-op when sweeping is disabled.
func (s *Sweeper) Start() {
	if !s.cfg.Enabled {
		s.logger.Info("batch sweeper disabled")
		return
	}
	s.cron.Start()
	s.logger.Info("batch sweeper started", "schedule", s.cfg.Schedule, "ttl", s.cfg.TTL)
}

// Stop halts the schedule and waits for a running sweep, or until ctx is done.
func (s *Sweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if _, err := s.SweepOnce(ctx); err != nil {
		s.logger.Error("batch sweep failed", "error", err)
	}
}

// SweepOnce deletes every staged object last modified before now-TTL and
// returns how many were removed. Committed objects are never touched.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.cfg.TTL)
	removed := 0
	for _, class := range s.classes {
		objects, err := s.store.ListObjects(ctx, imagekey.StagingRoot(class))
		if err != nil {
			return removed, fmt.Errorf("list staged %s: %w", class, err)
		}
		for _, obj := range objects {
			if !imagekey.Parse(obj.Key).IsStaged() || !obj.LastModified.Before(cutoff) {
				continue
			}
			if err := s.store.DeleteObject(ctx, obj.Key); err != nil {
				s.logger.Warn("expired staged object not deleted", "key", obj.Key, "error", err)
				continue
			}
			removed++
		}
	}
	s.metrics.AddSwept(removed)
	if removed > 0 {
		s.logger.Info("expired staged objects removed", "count", removed, "cutoff", cutoff)
	}
	return removed, nil
}
