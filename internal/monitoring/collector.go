// Package monitoring watches the scrape log and raises webhook alerts when
// the nightly pipeline goes quiet or starts failing.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ranch-group/ops-dashboard/internal/model"
)

// ScrapeLogReader is the slice of the store the collector needs.
type ScrapeLogReader interface {
	ListScrapeLog(ctx context.Context, limit int) ([]model.ScrapeLogEntry, error)
}

// HealthSnapshot is a point-in-time view of pipeline health over the
// lookback window.
type HealthSnapshot struct {
	RunsTotal     int `json:"runs_total"`
	RunsSucceeded int `json:"runs_succeeded"`
	RunsPartial   int `json:"runs_partial"`
	RunsFailed    int `json:"runs_failed"`

	// FailureRate is failed runs over total runs in the window.
	FailureRate float64 `json:"failure_rate"`

	// ConsecutiveFailures counts error runs from the most recent backwards,
	// across the whole log, not just the window.
	ConsecutiveFailures int `json:"consecutive_failures"`

	// LastSuccessAt is zero when no successful run is on record.
	LastSuccessAt time.Time `json:"last_success_at"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector computes health snapshots from the scrape log.
type Collector struct {
	store    ScrapeLogReader
	lookback time.Duration
}

// scanLimit bounds how much of the log one snapshot reads. At one scheduled
// run per day this covers months of history.
const scanLimit = 200

func NewCollector(st ScrapeLogReader, lookbackHours int) *Collector {
	if lookbackHours <= 0 {
		lookbackHours = 48
	}
	return &Collector{store: st, lookback: time.Duration(lookbackHours) * time.Hour}
}

// Collect builds a snapshot. Entries arrive newest first.
func (c *Collector) Collect(ctx context.Context) (*HealthSnapshot, error) {
	entries, err := c.store.ListScrapeLog(ctx, scanLimit)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: read scrape log")
	}

	now := time.Now()
	snap := &HealthSnapshot{
		LookbackHours: int(c.lookback.Hours()),
		CollectedAt:   now,
	}

	cutoff := now.Add(-c.lookback)
	countingStreak := true
	for _, e := range entries {
		if e.Status == model.ScrapeStatusError && countingStreak {
			snap.ConsecutiveFailures++
		} else {
			countingStreak = false
		}
		if snap.LastSuccessAt.IsZero() && e.Status == model.ScrapeStatusSuccess {
			snap.LastSuccessAt = e.CompletedAt
		}

		if e.CompletedAt.Before(cutoff) {
			continue
		}
		snap.RunsTotal++
		switch e.Status {
		case model.ScrapeStatusSuccess:
			snap.RunsSucceeded++
		case model.ScrapeStatusPartial:
			snap.RunsPartial++
		case model.ScrapeStatusError:
			snap.RunsFailed++
		}
	}
	if snap.RunsTotal > 0 {
		snap.FailureRate = float64(snap.RunsFailed) / float64(snap.RunsTotal)
	}
	return snap, nil
}
