package model

import "time"

// ScrapeStatus is the overall outcome recorded for a pipeline run.
type ScrapeStatus string

const (
	ScrapeStatusSuccess ScrapeStatus = "success"
	ScrapeStatusPartial ScrapeStatus = "partial"
	ScrapeStatusError   ScrapeStatus = "error"
)

// ScrapeLogEntry is an append-only audit row, one per pipeline run per vendor.
type ScrapeLogEntry struct {
	ID               string       `json:"id"`
	ScrapeType       string       `json:"scrape_type"`
	BusinessDate     string       `json:"business_date"`
	Status           ScrapeStatus `json:"status"`
	RecordsProcessed int          `json:"records_processed"`
	ErrorMessage     string       `json:"error_message,omitempty"`
	CompletedAt      time.Time    `json:"completed_at"`
	DurationSeconds  int          `json:"duration_seconds"`
}

// OutcomeStatus is the per-restaurant result within a run.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeNoData  OutcomeStatus = "no_data"
	OutcomeError   OutcomeStatus = "error"
)

// RestaurantOutcome records what happened to a single restaurant during a run.
type RestaurantOutcome struct {
	RestaurantID int64         `json:"restaurant_id"`
	Restaurant   string        `json:"restaurant"`
	Status       OutcomeStatus `json:"status"`
	Reason       string        `json:"reason,omitempty"`
	NetSales     float64       `json:"net_sales,omitempty"`
	LaborPercent float64       `json:"labor_percent,omitempty"`
}

// RunReport is returned to the pipeline's caller for every run, including
// total failures; callers never see an unhandled error instead of a report.
type RunReport struct {
	Date          string              `json:"date"`
	Status        ScrapeStatus        `json:"status"`
	Source        string              `json:"source,omitempty"`
	PerRestaurant []RestaurantOutcome `json:"per_restaurant"`
	LogEntryID    string              `json:"log_entry_id,omitempty"`
	Duration      time.Duration       `json:"-"`
}

// Succeeded counts restaurants with a success outcome.
func (r *RunReport) Succeeded() int {
	n := 0
	for _, o := range r.PerRestaurant {
		if o.Status == OutcomeSuccess {
			n++
		}
	}
	return n
}

// Failed counts restaurants with an error outcome.
func (r *RunReport) Failed() int {
	n := 0
	for _, o := range r.PerRestaurant {
		if o.Status == OutcomeError {
			n++
		}
	}
	return n
}
