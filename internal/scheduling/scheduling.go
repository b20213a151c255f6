// Package scheduling computes KPIs for outpatient appointments (agendamentos).
package scheduling

import (
	"sort"
	"time"

	"github.com/hospitalops/kpi-engine/internal/kpi"
)

// Appointment statuses.
const (
	StatusScheduled  = "scheduled"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusNoShow     = "no_show"
	StatusCanceled   = "canceled"
)

// upcomingDays is how far ahead of the reference day Upcoming looks.
const upcomingDays = 7

// Appointment is one scheduled encounter.
type Appointment struct {
	ID           string `json:"id"`
	PatientID    string `json:"patient_id"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Specialty    string `json:"specialty"`
	Professional string `json:"professional"`
	Status       string `json:"status"`
	Kind         string `json:"kind"`
}

// Options tunes the calculation.
type Options struct {
	TopN int `json:"top_n"`

	// SlotsPerDay is the bookable capacity per day. Zero disables SlotUtilization.
	SlotsPerDay int `json:"slots_per_day"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{TopN: kpi.DefaultTopN}
}

// SpecialtyRate is the no-show rate of one specialty.
type SpecialtyRate struct {
	Specialty string  `json:"specialty"`
	Total     int     `json:"total"`
	NoShows   int     `json:"no_shows"`
	Rate      float64 `json:"rate"`
}

// Result is the scheduling KPI card.
type Result struct {
	Total             int             `json:"total"`
	Scheduled         int             `json:"scheduled"`
	Confirmed         int             `json:"confirmed"`
	InProgress        int             `json:"in_progress"`
	Completed         int             `json:"completed"`
	NoShows           int             `json:"no_shows"`
	Canceled          int             `json:"canceled"`
	NoShowRate        float64         `json:"no_show_rate"`
	CancellationRate  float64         `json:"cancellation_rate"`
	ConfirmationRate  float64         `json:"confirmation_rate"`
	CompletionRate    float64         `json:"completion_rate"`
	SlotUtilization   float64         `json:"slot_utilization"`
	Upcoming          int             `json:"upcoming"`
	ByStatus          []kpi.Ranked    `json:"by_status"`
	TopSpecialties    []kpi.Ranked    `json:"top_specialties"`
	TopProfessionals  []kpi.Ranked    `json:"top_professionals"`
	NoShowBySpecialty []SpecialtyRate `json:"no_show_by_specialty"`
	Seasonality       kpi.Seasonality `json:"seasonality"`
}

func appointmentDate(a Appointment) string { return a.Date }

// Calculate builds the scheduling KPI card for the window.
func Calculate(records []Appointment, w kpi.Window, opts Options) Result {
	limit := kpi.Limit(opts.TopN)
	inWindow := kpi.InWindow(records, appointmentDate, w)

	statuses := kpi.NewCounter()
	for _, a := range inWindow {
		statuses.Inc(a.Status)
	}
	count := func(status string) int { return int(statuses.Get(status)) }

	total := float64(len(inWindow))
	confirmed := count(StatusConfirmed) + count(StatusInProgress) + count(StatusCompleted)
	booked := total - float64(count(StatusCanceled))

	res := Result{
		Total:             len(inWindow),
		Scheduled:         count(StatusScheduled),
		Confirmed:         count(StatusConfirmed),
		InProgress:        count(StatusInProgress),
		Completed:         count(StatusCompleted),
		NoShows:           count(StatusNoShow),
		Canceled:          count(StatusCanceled),
		NoShowRate:        kpi.Percentage(float64(count(StatusNoShow)), total),
		CancellationRate:  kpi.Percentage(float64(count(StatusCanceled)), total),
		ConfirmationRate:  kpi.Percentage(float64(confirmed), total),
		CompletionRate:    kpi.Percentage(float64(count(StatusCompleted)), total),
		Upcoming:          Upcoming(records, w.Ref),
		ByStatus:          statuses.Ranked(0),
		TopSpecialties:    kpi.CountBy(inWindow, func(a Appointment) string { return a.Specialty }, limit),
		TopProfessionals:  kpi.CountBy(inWindow, func(a Appointment) string { return a.Professional }, limit),
		NoShowBySpecialty: noShowBySpecialty(inWindow, limit),
		Seasonality:       kpi.SeasonalityOf(records, appointmentDate, w.Ref),
	}
	if opts.SlotsPerDay > 0 {
		capacity := float64(opts.SlotsPerDay * w.Days())
		res.SlotUtilization = kpi.ClampRate(kpi.Percentage(booked, capacity))
	}
	return res
}

// NoShowRate returns round(no_show/total*100) over the given appointments.
func NoShowRate(records []Appointment) float64 {
	noShows := kpi.CountIf(records, func(a Appointment) bool { return a.Status == StatusNoShow })
	return kpi.Percentage(float64(noShows), float64(len(records)))
}

// Upcoming counts scheduled or confirmed appointments in the seven days after ref.
func Upcoming(records []Appointment, ref time.Time) int {
	loc := ref.Location()
	n := 0
	for _, a := range records {
		if a.Status != StatusScheduled && a.Status != StatusConfirmed {
			continue
		}
		t, ok := kpi.ParseDate(a.Date, loc)
		if !ok {
			continue
		}
		if days := kpi.DaysBetween(ref, t); days >= 1 && days <= upcomingDays {
			n++
		}
	}
	return n
}

func noShowBySpecialty(records []Appointment, limit int) []SpecialtyRate {
	totals := kpi.NewCounter()
	noShows := kpi.NewCounter()
	for _, a := range records {
		totals.Inc(a.Specialty)
		if a.Status == StatusNoShow {
			noShows.Inc(a.Specialty)
		}
	}
	out := make([]SpecialtyRate, 0, totals.Len())
	for _, key := range totals.Keys() {
		total, missed := totals.Get(key), noShows.Get(key)
		out = append(out, SpecialtyRate{
			Specialty: key,
			Total:     int(total),
			NoShows:   int(missed),
			Rate:      kpi.Percentage(missed, total),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rate > out[j].Rate })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
