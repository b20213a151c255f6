// Package ccih computes hospital infection control KPIs (CCIH): infection density,
// healthcare-associated share and isolation precautions.
package ccih

import (
	"time"

	"github.com/hospitalops/kpi-engine/internal/kpi"
)

// DefaultDailyCensus estimates occupied beds per day when patient-days are not supplied.
const DefaultDailyCensus = 100

// Infection outcomes.
const (
	OutcomeCured       = "cured"
	OutcomeDeath       = "death"
	OutcomeOngoing     = "ongoing"
	OutcomeTransferred = "transferred"
)

// InfectionRecord is one notified infection.
type InfectionRecord struct {
	ID             string `json:"id"`
	PatientID      string `json:"patient_id"`
	Date           string `json:"date"`
	Site           string `json:"site"`
	CostCenter     string `json:"cost_center"`
	Microorganism  string `json:"microorganism,omitempty"`
	Antimicrobial  string `json:"antimicrobial,omitempty"`
	IsSurgicalSite bool   `json:"is_surgical_site"`
	IsHCAI         bool   `json:"is_hcai"`
	Outcome        string `json:"outcome"`
}

// IsolationRecord is one contact/droplet/airborne precaution episode.
type IsolationRecord struct {
	ID            string   `json:"id"`
	PatientID     string   `json:"patient_id"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date,omitempty"`
	IsolationType string   `json:"isolation_type"`
	DaysIsolated  *float64 `json:"days_isolated,omitempty"`
}

// Options tunes the calculation.
type Options struct {
	TopN int `json:"top_n"`

	// PatientDays overrides the estimate DailyCensus × window days when positive.
	PatientDays float64 `json:"patient_days"`
	DailyCensus float64 `json:"daily_census"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{TopN: kpi.DefaultTopN, DailyCensus: DefaultDailyCensus}
}

// Result is the infection control KPI card.
type Result struct {
	Infections           int             `json:"infections"`
	HCAI                 int             `json:"hcai"`
	SurgicalSite         int             `json:"surgical_site"`
	PatientDays          float64         `json:"patient_days"`
	InfectionRate        float64         `json:"infection_rate"`
	HCAIShare            float64         `json:"hcai_share"`
	SurgicalSiteRate     float64         `json:"surgical_site_rate"`
	InfectionMortality   float64         `json:"infection_mortality"`
	BySite               []kpi.Ranked    `json:"by_site"`
	ByMicroorganism      []kpi.Ranked    `json:"by_microorganism"`
	TopAntimicrobials    []kpi.Ranked    `json:"top_antimicrobials"`
	ByOutcome            []kpi.Ranked    `json:"by_outcome"`
	ByCostCenter         []kpi.Ranked    `json:"by_cost_center"`
	IsolationsStarted    int             `json:"isolations_started"`
	ActiveIsolations     int             `json:"active_isolations"`
	AverageIsolationDays float64         `json:"average_isolation_days"`
	ByIsolationType      []kpi.Ranked    `json:"by_isolation_type"`
	Seasonality          kpi.Seasonality `json:"seasonality"`
}

func infectionDate(r InfectionRecord) string  { return r.Date }
func isolationStart(r IsolationRecord) string { return r.StartDate }

// InfectionRate returns infections per 1000 patient-days rounded to two decimals.
func InfectionRate(infections int, patientDays float64) float64 {
	return kpi.Round2(kpi.Ratio(float64(infections), patientDays) * 1000)
}

// PatientDays resolves the denominator for the window.
func PatientDays(w kpi.Window, opts Options) float64 {
	if opts.PatientDays > 0 {
		return opts.PatientDays
	}
	census := opts.DailyCensus
	if census <= 0 {
		census = DefaultDailyCensus
	}
	return census * float64(w.Days())
}

// Calculate builds the infection control KPI card for the window.
func Calculate(infections []InfectionRecord, isolations []IsolationRecord, w kpi.Window, opts Options) Result {
	limit := kpi.Limit(opts.TopN)
	inWindow := kpi.InWindow(infections, infectionDate, w)
	total := float64(len(inWindow))

	hcai := kpi.CountIf(inWindow, func(r InfectionRecord) bool { return r.IsHCAI })
	surgical := kpi.CountIf(inWindow, func(r InfectionRecord) bool { return r.IsSurgicalSite })
	deaths := kpi.CountIf(inWindow, func(r InfectionRecord) bool { return r.Outcome == OutcomeDeath })
	treated := make([]InfectionRecord, 0, len(inWindow))
	for _, r := range inWindow {
		if r.Antimicrobial != "" {
			treated = append(treated, r)
		}
	}
	patientDays := PatientDays(w, opts)

	started := kpi.InWindow(isolations, isolationStart, w)

	return Result{
		Infections:           len(inWindow),
		HCAI:                 hcai,
		SurgicalSite:         surgical,
		PatientDays:          patientDays,
		InfectionRate:        InfectionRate(len(inWindow), patientDays),
		HCAIShare:            kpi.Percentage(float64(hcai), total),
		SurgicalSiteRate:     kpi.Percentage(float64(surgical), total),
		InfectionMortality:   kpi.Percentage(float64(deaths), total),
		BySite:               kpi.CountBy(inWindow, func(r InfectionRecord) string { return r.Site }, 0),
		ByMicroorganism:      kpi.CountBy(inWindow, func(r InfectionRecord) string { return r.Microorganism }, limit),
		TopAntimicrobials:    kpi.CountBy(treated, func(r InfectionRecord) string { return r.Antimicrobial }, limit),
		ByOutcome:            kpi.CountBy(inWindow, func(r InfectionRecord) string { return r.Outcome }, 0),
		ByCostCenter:         kpi.CountBy(inWindow, func(r InfectionRecord) string { return r.CostCenter }, limit),
		IsolationsStarted:    len(started),
		ActiveIsolations:     ActiveIsolations(isolations, w.Ref),
		AverageIsolationDays: averageIsolationDays(started, w.Ref),
		ByIsolationType:      kpi.CountBy(started, func(r IsolationRecord) string { return r.IsolationType }, 0),
		Seasonality:          kpi.SeasonalityOf(infections, infectionDate, w.Ref),
	}
}

// ActiveIsolations counts precautions started on or before ref that had not ended
// before ref's day.
func ActiveIsolations(records []IsolationRecord, ref time.Time) int {
	loc := ref.Location()
	n := 0
	for _, r := range records {
		start, ok := kpi.ParseDate(r.StartDate, loc)
		if !ok || kpi.DaysBetween(start, ref) < 0 {
			continue
		}
		if end, ok := kpi.ParseDate(r.EndDate, loc); ok && kpi.DaysBetween(end, ref) > 0 {
			continue
		}
		n++
	}
	return n
}

// averageIsolationDays uses the recorded duration when present, else the span from start
// to end (or to ref while still open), never less than one day.
func averageIsolationDays(records []IsolationRecord, ref time.Time) float64 {
	loc := ref.Location()
	days := make([]float64, 0, len(records))
	for _, r := range records {
		if kpi.Defined(r.DaysIsolated) {
			days = append(days, *r.DaysIsolated)
			continue
		}
		start, ok := kpi.ParseDate(r.StartDate, loc)
		if !ok {
			continue
		}
		end, ok := kpi.ParseDate(r.EndDate, loc)
		if !ok {
			end = ref
		}
		span := kpi.DaysBetween(start, end)
		if span < 1 {
			span = 1
		}
		days = append(days, float64(span))
	}
	return kpi.Round1(kpi.Average(days))
}
