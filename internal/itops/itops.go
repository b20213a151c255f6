// Package itops computes IT service desk KPIs.
package itops

import (
	"time"

	"github.com/hospitalops/kpi-engine/internal/kpi"
)

// Ticket statuses.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

// Ticket priorities.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Ticket is one service desk request.
type Ticket struct {
	ID         string `json:"id"`
	OpenedAt   string `json:"opened_at"`
	ResolvedAt string `json:"resolved_at,omitempty"`
	Category   string `json:"category"`
	Priority   string `json:"priority"`
	Status     string `json:"status"`
	CostCenter string `json:"cost_center"`
	Technician string `json:"technician,omitempty"`
}

// Options tunes the calculation. SLAHours maps priority to the resolution target.
type Options struct {
	TopN     int                `json:"top_n"`
	SLAHours map[string]float64 `json:"sla_hours"`
}

// DefaultSLAHours returns the resolution targets per priority.
func DefaultSLAHours() map[string]float64 {
	return map[string]float64{
		PriorityLow:      72,
		PriorityMedium:   24,
		PriorityHigh:     8,
		PriorityCritical: 4,
	}
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{TopN: kpi.DefaultTopN, SLAHours: DefaultSLAHours()}
}

// Result is the IT service desk KPI card.
type Result struct {
	Tickets                int             `json:"tickets"`
	Open                   int             `json:"open"`
	InProgress             int             `json:"in_progress"`
	Resolved               int             `json:"resolved"`
	ResolutionRate         float64         `json:"resolution_rate"`
	Backlog                int             `json:"backlog"`
	AverageResolutionHours float64         `json:"average_resolution_hours"`
	SLACompliance          float64         `json:"sla_compliance"`
	ByCategory             []kpi.Ranked    `json:"by_category"`
	ByPriority             []kpi.Ranked    `json:"by_priority"`
	ByCostCenter           []kpi.Ranked    `json:"by_cost_center"`
	TopTechnicians         []kpi.Ranked    `json:"top_technicians"`
	Seasonality            kpi.Seasonality `json:"seasonality"`
}

func openedAt(t Ticket) string { return t.OpenedAt }

// IsResolved reports whether the ticket has been resolved or closed.
func IsResolved(t Ticket) bool {
	return t.Status == StatusResolved || t.Status == StatusClosed
}

// Calculate builds the IT service desk KPI card for the window.
func Calculate(records []Ticket, w kpi.Window, opts Options) Result {
	limit := kpi.Limit(opts.TopN)
	sla := opts.SLAHours
	if len(sla) == 0 {
		sla = DefaultSLAHours()
	}
	inWindow := kpi.InWindow(records, openedAt, w)
	loc := w.Location()

	var resolved []Ticket
	var hours []float64
	withinSLA, measured := 0, 0
	for _, t := range inWindow {
		if !IsResolved(t) {
			continue
		}
		resolved = append(resolved, t)
		h, ok := ResolutionHours(t, loc)
		if !ok {
			continue
		}
		hours = append(hours, h)
		if target, ok := sla[t.Priority]; ok && target > 0 {
			measured++
			if h <= target {
				withinSLA++
			}
		}
	}

	return Result{
		Tickets:                len(inWindow),
		Open:                   kpi.CountIf(inWindow, func(t Ticket) bool { return t.Status == StatusOpen }),
		InProgress:             kpi.CountIf(inWindow, func(t Ticket) bool { return t.Status == StatusInProgress }),
		Resolved:               len(resolved),
		ResolutionRate:         kpi.Percentage(float64(len(resolved)), float64(len(inWindow))),
		Backlog:                Backlog(records, w.Ref),
		AverageResolutionHours: kpi.Round1(kpi.Average(hours)),
		SLACompliance:          kpi.Percentage(float64(withinSLA), float64(measured)),
		ByCategory:             kpi.CountBy(inWindow, func(t Ticket) string { return t.Category }, limit),
		ByPriority:             kpi.CountBy(inWindow, func(t Ticket) string { return t.Priority }, 0),
		ByCostCenter:           kpi.CountBy(inWindow, func(t Ticket) string { return t.CostCenter }, limit),
		TopTechnicians:         kpi.CountBy(resolved, func(t Ticket) string { return t.Technician }, limit),
		Seasonality:            kpi.SeasonalityOf(records, openedAt, w.Ref),
	}
}

// ResolutionHours is the elapsed time from opening to resolution.
func ResolutionHours(t Ticket, loc *time.Location) (float64, bool) {
	opened, ok := kpi.ParseDate(t.OpenedAt, loc)
	if !ok {
		return 0, false
	}
	done, ok := kpi.ParseDate(t.ResolvedAt, loc)
	if !ok || done.Before(opened) {
		return 0, false
	}
	return done.Sub(opened).Hours(), true
}

// Backlog counts unresolved tickets opened on or before ref's day.
func Backlog(records []Ticket, ref time.Time) int {
	n := 0
	for _, t := range records {
		if t.Status != StatusOpen && t.Status != StatusInProgress {
			continue
		}
		opened, ok := kpi.ParseDate(t.OpenedAt, ref.Location())
		if ok && kpi.DaysBetween(opened, ref) >= 0 {
			n++
		}
	}
	return n
}
