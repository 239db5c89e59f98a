package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ranch-group/ops-dashboard/internal/config"
	"github.com/ranch-group/ops-dashboard/internal/model"
)

type stubLog struct {
	entries []model.ScrapeLogEntry
}

func (s *stubLog) ListScrapeLog(ctx context.Context, limit int) ([]model.ScrapeLogEntry, error) {
	return s.entries, nil
}

// entry builds a log row completed hoursAgo hours in the past.
func entry(status model.ScrapeStatus, hoursAgo int) model.ScrapeLogEntry {
	return model.ScrapeLogEntry{
		Status:      status,
		CompletedAt: time.Now().Add(-time.Duration(hoursAgo) * time.Hour),
	}
}

func TestCollectorCountsWindow(t *testing.T) {
	st := &stubLog{entries: []model.ScrapeLogEntry{
		entry(model.ScrapeStatusSuccess, 1),
		entry(model.ScrapeStatusPartial, 25),
		entry(model.ScrapeStatusError, 30),
		entry(model.ScrapeStatusError, 100), // outside the 48h window
	}}

	snap, err := NewCollector(st, 48).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, snap.RunsTotal)
	assert.Equal(t, 1, snap.RunsSucceeded)
	assert.Equal(t, 1, snap.RunsPartial)
	assert.Equal(t, 1, snap.RunsFailed)
	assert.InDelta(t, 1.0/3.0, snap.FailureRate, 1e-9)
	assert.Equal(t, 0, snap.ConsecutiveFailures)
	assert.False(t, snap.LastSuccessAt.IsZero())
}

func TestCollectorConsecutiveFailures(t *testing.T) {
	st := &stubLog{entries: []model.ScrapeLogEntry{
		entry(model.ScrapeStatusError, 1),
		entry(model.ScrapeStatusError, 25),
		entry(model.ScrapeStatusError, 100), // streak spans the whole log
		entry(model.ScrapeStatusSuccess, 120),
	}}

	snap, err := NewCollector(st, 48).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, snap.ConsecutiveFailures)
	assert.WithinDuration(t, time.Now().Add(-120*time.Hour), snap.LastSuccessAt, time.Minute)
}

func TestCollectorEmptyLog(t *testing.T) {
	snap, err := NewCollector(&stubLog{}, 48).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, snap.RunsTotal)
	assert.Zero(t, snap.FailureRate)
	assert.True(t, snap.LastSuccessAt.IsZero())
}

func testMonitoringConfig() config.MonitoringConfig {
	return config.MonitoringConfig{
		LookbackHours:          48,
		MaxConsecutiveFailures: 2,
		FailureRateThreshold:   0.5,
		StaleAfterHours:        36,
	}
}

func TestAlerterEvaluate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		snap HealthSnapshot
		want []AlertType
	}{
		{
			name: "healthy",
			snap: HealthSnapshot{RunsTotal: 3, RunsSucceeded: 3, LastSuccessAt: now, CollectedAt: now},
			want: nil,
		},
		{
			name: "consecutive failures",
			snap: HealthSnapshot{RunsTotal: 2, RunsFailed: 2, FailureRate: 1,
				ConsecutiveFailures: 2, LastSuccessAt: now, CollectedAt: now},
			want: []AlertType{AlertConsecutiveFailures},
		},
		{
			name: "failure rate needs at least three runs",
			snap: HealthSnapshot{RunsTotal: 2, RunsFailed: 1, FailureRate: 1,
				ConsecutiveFailures: 1, LastSuccessAt: now, CollectedAt: now},
			want: nil,
		},
		{
			name: "failure rate breach",
			snap: HealthSnapshot{RunsTotal: 4, RunsFailed: 3, FailureRate: 0.75,
				LastSuccessAt: now, CollectedAt: now},
			want: []AlertType{AlertFailureRate},
		},
		{
			name: "stale data",
			snap: HealthSnapshot{RunsTotal: 1, RunsSucceeded: 1,
				LastSuccessAt: now.Add(-40 * time.Hour), CollectedAt: now},
			want: []AlertType{AlertStaleData},
		},
	}

	a := NewAlerter(testMonitoringConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := a.Evaluate(&tt.snap)
			var got []AlertType
			for _, al := range alerts {
				got = append(got, al.Type)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlerterSendsWebhook(t *testing.T) {
	var received []Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var a Alert
		require.NoError(t, json.NewDecoder(r.Body).Decode(&a))
		received = append(received, a)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testMonitoringConfig()
	cfg.WebhookURL = srv.URL
	a := NewAlerter(cfg)

	sent := a.SendAlerts(context.Background(), []Alert{
		{Type: AlertConsecutiveFailures, Severity: "high", Message: "boom"},
		{Type: AlertStaleData, Severity: "medium", Message: "quiet"},
	})
	assert.Equal(t, 2, sent)
	require.Len(t, received, 2)
	assert.Equal(t, AlertConsecutiveFailures, received[0].Type)
}

func TestAlerterSkipsWithoutWebhook(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())
	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertStaleData}})
	assert.Equal(t, 0, sent)
}

func TestAlerterCountsWebhookFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testMonitoringConfig()
	cfg.WebhookURL = srv.URL
	sent := NewAlerter(cfg).SendAlerts(context.Background(), []Alert{{Type: AlertStaleData}})
	assert.Equal(t, 0, sent)
}

func TestCheckerStopsOnCancel(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testMonitoringConfig()
	cfg.WebhookURL = srv.URL
	cfg.CheckIntervalSecs = 1

	st := &stubLog{entries: []model.ScrapeLogEntry{
		entry(model.ScrapeStatusError, 1),
		entry(model.ScrapeStatusError, 25),
	}}
	checker := NewChecker(NewCollector(st, cfg.LookbackHours), NewAlerter(cfg), cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		checker.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("checker did not stop on context cancel")
	}
	assert.GreaterOrEqual(t, int(hits.Load()), 1)
}
