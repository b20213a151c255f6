// Package records computes medical records archive (SAME) KPIs: chart requests, loans
// and returns.
package records

import (
	"time"

	"github.com/hospitalops/kpi-engine/internal/kpi"
)

// Request statuses.
const (
	StatusPending   = "pending"
	StatusDelivered = "delivered"
	StatusReturned  = "returned"
	StatusLost      = "lost"
)

// RecordRequest is one request for a patient chart.
type RecordRequest struct {
	ID          string `json:"id"`
	PatientID   string `json:"patient_id"`
	RequestedAt string `json:"requested_at"`
	DeliveredAt string `json:"delivered_at,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	ReturnedAt  string `json:"returned_at,omitempty"`
	Kind        string `json:"kind"`
	CostCenter  string `json:"cost_center"`
	Requester   string `json:"requester"`
	Status      string `json:"status"`
}

// Options tunes the calculation.
type Options struct {
	TopN int `json:"top_n"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{TopN: kpi.DefaultTopN}
}

// Result is the medical records KPI card.
type Result struct {
	Requests               int             `json:"requests"`
	Delivered              int             `json:"delivered"`
	Returned               int             `json:"returned"`
	Pending                int             `json:"pending"`
	Lost                   int             `json:"lost"`
	Overdue                int             `json:"overdue"`
	OverdueRate            float64         `json:"overdue_rate"`
	AverageTurnaroundHours float64         `json:"average_turnaround_hours"`
	ByKind                 []kpi.Ranked    `json:"by_kind"`
	ByCostCenter           []kpi.Ranked    `json:"by_cost_center"`
	TopRequesters          []kpi.Ranked    `json:"top_requesters"`
	Seasonality            kpi.Seasonality `json:"seasonality"`
}

func requestedAt(r RecordRequest) string { return r.RequestedAt }

// Calculate builds the medical records KPI card for the window.
func Calculate(records []RecordRequest, w kpi.Window, opts Options) Result {
	limit := kpi.Limit(opts.TopN)
	inWindow := kpi.InWindow(records, requestedAt, w)
	loc := w.Location()

	overdue := 0
	var turnaround []float64
	for _, r := range inWindow {
		if IsOverdue(r, w.Ref) {
			overdue++
		}
		if h, ok := TurnaroundHours(r, loc); ok {
			turnaround = append(turnaround, h)
		}
	}
	status := func(s string) int {
		return kpi.CountIf(inWindow, func(r RecordRequest) bool { return r.Status == s })
	}

	return Result{
		Requests:               len(inWindow),
		Delivered:              status(StatusDelivered),
		Returned:               status(StatusReturned),
		Pending:                status(StatusPending),
		Lost:                   status(StatusLost),
		Overdue:                overdue,
		OverdueRate:            kpi.Percentage(float64(overdue), float64(len(inWindow))),
		AverageTurnaroundHours: kpi.Round1(kpi.Average(turnaround)),
		ByKind:                 kpi.CountBy(inWindow, func(r RecordRequest) string { return r.Kind }, 0),
		ByCostCenter:           kpi.CountBy(inWindow, func(r RecordRequest) string { return r.CostCenter }, limit),
		TopRequesters:          kpi.CountBy(inWindow, func(r RecordRequest) string { return r.Requester }, limit),
		Seasonality:            kpi.SeasonalityOf(records, requestedAt, w.Ref),
	}
}

// IsOverdue reports whether a chart out on loan passed its due date before ref's day.
func IsOverdue(r RecordRequest, ref time.Time) bool {
	if r.Status == StatusReturned || r.Status == StatusLost || r.ReturnedAt != "" {
		return false
	}
	due, ok := kpi.ParseDate(r.DueDate, ref.Location())
	return ok && kpi.DaysBetween(due, ref) > 0
}

// TurnaroundHours is the time from request to delivery.
func TurnaroundHours(r RecordRequest, loc *time.Location) (float64, bool) {
	asked, ok := kpi.ParseDate(r.RequestedAt, loc)
	if !ok {
		return 0, false
	}
	delivered, ok := kpi.ParseDate(r.DeliveredAt, loc)
	if !ok || delivered.Before(asked) {
		return 0, false
	}
	return delivered.Sub(asked).Hours(), true
}
