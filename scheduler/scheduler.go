// Package scheduler runs the recurring batch expiry scan: every medicine
// batch with an expiry date is checked daily, expired and soon-to-expire
// batches are logged, and the Prometheus gauges are refreshed.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/hmpharma/pharmacy-api/entities"
	"github.com/hmpharma/pharmacy-api/logging"
	"github.com/hmpharma/pharmacy-api/metrics"
)

const expiryDateLayout = "2006-01-02"

// BatchSource lists the medicine batches to scan; the medicine-batches store
// satisfies it.
type BatchSource interface {
	List(ctx context.Context, spec entities.SortSpec) ([]*entities.MedicineBatches, error)
}

// Scheduler owns the daily expiry scan and its staleness watchdog.
type Scheduler struct {
	batches   BatchSource
	warnDays  int
	scheduler *gocron.Scheduler
	scanning  atomic.Bool

	mu       sync.RWMutex
	lastScan time.Time

	watchdogStop chan struct{}
}

// NewScheduler creates a scheduler warning about batches that expire within
// warnDays.
func NewScheduler(batches BatchSource, warnDays int) *Scheduler {
	return &Scheduler{
		batches:      batches,
		warnDays:     warnDays,
		scheduler:    gocron.NewScheduler(time.Local),
		watchdogStop: make(chan struct{}),
	}
}

// Start runs an initial scan and schedules the daily one at 06:00.
func (s *Scheduler) Start() error {
	if err := s.Scan(context.Background()); err != nil {
		logging.Error("Failed to perform initial expiry scan", "error", err)
		return fmt.Errorf("initial expiry scan failed: %w", err)
	}

	_, err := s.scheduler.Every(1).Days().At("06:00").Do(func() {
		if err := s.Scan(context.Background()); err != nil {
			logging.Error("Failed to run expiry scan", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule expiry scan", "error", err)
		return fmt.Errorf("failed to schedule expiry scan: %w", err)
	}

	s.scheduler.StartAsync()
	s.startWatchdog()

	return nil
}

// Stop stops the scheduler and the watchdog.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	close(s.watchdogStop)
}

// LastScan returns when the last scan completed, zero before the first one.
func (s *Scheduler) LastScan() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastScan
}

// Scan walks every batch once. Concurrent calls are collapsed: a scan already
// in flight makes this a no-op.
func (s *Scheduler) Scan(ctx context.Context) error {
	if !s.scanning.CompareAndSwap(false, true) {
		logging.Info("Expiry scan already in progress, skipping...")
		return nil
	}
	defer s.scanning.Store(false)

	start := time.Now()

	batches, err := s.batches.List(ctx, entities.SortSpec{})
	if err != nil {
		return fmt.Errorf("failed to list medicine batches: %w", err)
	}

	// Midnight in local time, matching how expiry dates are parsed; a plain
	// Truncate would cut on the UTC day boundary instead.
	y, m, d := start.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	warnUntil := today.AddDate(0, 0, s.warnDays)

	var expired, expiringSoon int
	for _, batch := range batches {
		if batch.ExpiryDate == nil {
			continue
		}
		expiry, err := time.ParseInLocation(expiryDateLayout, *batch.ExpiryDate, time.Local)
		if err != nil {
			logging.Warn("Batch has malformed expiry date",
				"batch_id", idOf(batch), "expiry_date", *batch.ExpiryDate)
			continue
		}

		switch {
		case expiry.Before(today):
			expired++
			logging.Warn("Medicine batch expired",
				"batch_id", idOf(batch),
				"batch_number", batchNumberOf(batch),
				"expiry_date", *batch.ExpiryDate)
		case !expiry.After(warnUntil):
			expiringSoon++
			logging.Info("Medicine batch expiring soon",
				"batch_id", idOf(batch),
				"batch_number", batchNumberOf(batch),
				"expiry_date", *batch.ExpiryDate)
		}
	}

	metrics.MedicineBatchesExpired.Set(float64(expired))
	metrics.MedicineBatchesExpiringSoon.Set(float64(expiringSoon))

	s.mu.Lock()
	s.lastScan = time.Now()
	s.mu.Unlock()

	logging.Info("Expiry scan completed",
		"duration", time.Since(start).String(),
		"batches", len(batches),
		"expired", expired,
		"expiring_soon", expiringSoon)

	return nil
}

// startWatchdog logs hourly if no scan has completed in over 25 hours.
func (s *Scheduler) startWatchdog() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-s.watchdogStop:
				return
			case <-ticker.C:
				if time.Since(s.LastScan()) > 25*time.Hour {
					logging.Warn("Expiry scan hasn't completed in over 25 hours")
				}
			}
		}
	}()
}

func idOf(batch *entities.MedicineBatches) int64 {
	if batch.ID == nil {
		return 0
	}
	return *batch.ID
}

func batchNumberOf(batch *entities.MedicineBatches) string {
	if batch.BatchNumber == nil {
		return ""
	}
	return *batch.BatchNumber
}
