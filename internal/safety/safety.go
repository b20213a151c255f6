// Package safety computes occupational health and safety KPIs (SESMT).
package safety

import (
	"time"

	"github.com/hospitalops/kpi-engine/internal/kpi"
)

// DefaultHoursPerEmployeeMonth is the monthly workload used to estimate exposure hours.
const DefaultHoursPerEmployeeMonth = 176

// rateBase is the exposure base of frequency and severity rates (hours).
const rateBase = 1_000_000

// Incident types.
const (
	TypeAccident = "accident"
	TypeNearMiss = "near_miss"
	TypeIllness  = "illness"
)

// SafetyIncident is one workplace safety occurrence.
type SafetyIncident struct {
	ID         string   `json:"id"`
	Date       string   `json:"date"`
	Type       string   `json:"type"`
	Severity   string   `json:"severity"`
	CostCenter string   `json:"cost_center"`
	EmployeeID string   `json:"employee_id,omitempty"`
	LostTime   bool     `json:"lost_time"`
	LostDays   *float64 `json:"lost_days,omitempty"`
}

// Options tunes the calculation. Rates stay 0 while Employees is unset.
type Options struct {
	TopN                  int     `json:"top_n"`
	Employees             int     `json:"employees"`
	HoursPerEmployeeMonth float64 `json:"hours_per_employee_month"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{TopN: kpi.DefaultTopN, HoursPerEmployeeMonth: DefaultHoursPerEmployeeMonth}
}

// Result is the workplace safety KPI card.
type Result struct {
	Incidents             int             `json:"incidents"`
	Accidents             int             `json:"accidents"`
	LostTimeAccidents     int             `json:"lost_time_accidents"`
	NearMisses            int             `json:"near_misses"`
	LostDays              float64         `json:"lost_days"`
	HoursWorked           float64         `json:"hours_worked"`
	FrequencyRate         float64         `json:"frequency_rate"`
	SeverityRate          float64         `json:"severity_rate"`
	DaysSinceLastAccident int             `json:"days_since_last_accident"`
	ByType                []kpi.Ranked    `json:"by_type"`
	BySeverity            []kpi.Ranked    `json:"by_severity"`
	ByCostCenter          []kpi.Ranked    `json:"by_cost_center"`
	Seasonality           kpi.Seasonality `json:"seasonality"`
}

func incidentDate(i SafetyIncident) string { return i.Date }

// HoursWorked estimates exposure hours for the window. A day window counts as a
// fraction of the month.
func HoursWorked(w kpi.Window, opts Options) float64 {
	hours := opts.HoursPerEmployeeMonth
	if hours <= 0 {
		hours = DefaultHoursPerEmployeeMonth
	}
	months := 1.0
	if w.Period == kpi.PeriodDay {
		months = 1 / float64(kpi.DaysInMonth(w.Ref.Year(), w.Ref.Month()))
	}
	return float64(opts.Employees) * hours * months
}

// Calculate builds the workplace safety KPI card for the window.
func Calculate(records []SafetyIncident, w kpi.Window, opts Options) Result {
	limit := kpi.Limit(opts.TopN)
	inWindow := kpi.InWindow(records, incidentDate, w)

	accidents := kpi.CountIf(inWindow, func(i SafetyIncident) bool { return i.Type == TypeAccident })
	lostTime := kpi.CountIf(inWindow, func(i SafetyIncident) bool { return i.Type == TypeAccident && i.LostTime })
	lostDays := kpi.Sum(kpi.DefinedValues(inWindow, func(i SafetyIncident) *float64 { return i.LostDays }))
	hours := HoursWorked(w, opts)

	return Result{
		Incidents:             len(inWindow),
		Accidents:             accidents,
		LostTimeAccidents:     lostTime,
		NearMisses:            kpi.CountIf(inWindow, func(i SafetyIncident) bool { return i.Type == TypeNearMiss }),
		LostDays:              lostDays,
		HoursWorked:           kpi.Round2(hours),
		FrequencyRate:         kpi.Round2(kpi.Ratio(float64(accidents)*rateBase, hours)),
		SeverityRate:          kpi.Round2(kpi.Ratio(lostDays*rateBase, hours)),
		DaysSinceLastAccident: DaysSinceLastAccident(records, w.Ref),
		ByType:                kpi.CountBy(inWindow, func(i SafetyIncident) string { return i.Type }, 0),
		BySeverity:            kpi.CountBy(inWindow, func(i SafetyIncident) string { return i.Severity }, 0),
		ByCostCenter:          kpi.CountBy(inWindow, func(i SafetyIncident) string { return i.CostCenter }, limit),
		Seasonality:           kpi.SeasonalityOf(records, incidentDate, w.Ref),
	}
}

// DaysSinceLastAccident counts calendar days from the latest accident on or before ref,
// -1 when there is none.
func DaysSinceLastAccident(records []SafetyIncident, ref time.Time) int {
	best := -1
	for _, i := range records {
		if i.Type != TypeAccident {
			continue
		}
		t, ok := kpi.ParseDate(i.Date, ref.Location())
		if !ok {
			continue
		}
		days := kpi.DaysBetween(t, ref)
		if days < 0 {
			continue
		}
		if best < 0 || days < best {
			best = days
		}
	}
	return best
}
