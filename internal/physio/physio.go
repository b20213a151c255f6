// Package physio computes physiotherapy session KPIs.
package physio

import "github.com/hospitalops/kpi-engine/internal/kpi"

// Session statuses.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
	StatusAbsent    = "absent"
)

// PhysioSession is one physiotherapy session.
type PhysioSession struct {
	ID              string   `json:"id"`
	PatientID       string   `json:"patient_id"`
	Date            string   `json:"date"`
	Therapist       string   `json:"therapist"`
	Modality        string   `json:"modality"`
	CostCenter      string   `json:"cost_center"`
	Status          string   `json:"status"`
	DurationMinutes *float64 `json:"duration_minutes,omitempty"`
}

// Options tunes the calculation.
type Options struct {
	TopN int `json:"top_n"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{TopN: kpi.DefaultTopN}
}

// Result is the physiotherapy KPI card.
type Result struct {
	Sessions               int             `json:"sessions"`
	Completed              int             `json:"completed"`
	Canceled               int             `json:"canceled"`
	Absent                 int             `json:"absent"`
	AdherenceRate          float64         `json:"adherence_rate"`
	UniquePatients         int             `json:"unique_patients"`
	SessionsPerPatient     float64         `json:"sessions_per_patient"`
	AverageDurationMinutes float64         `json:"average_duration_minutes"`
	ByModality             []kpi.Ranked    `json:"by_modality"`
	TopTherapists          []kpi.Ranked    `json:"top_therapists"`
	ByCostCenter           []kpi.Ranked    `json:"by_cost_center"`
	Seasonality            kpi.Seasonality `json:"seasonality"`
}

func sessionDate(s PhysioSession) string { return s.Date }

// Calculate builds the physiotherapy KPI card for the window. Adherence leaves
// canceled sessions out of the denominator.
func Calculate(records []PhysioSession, w kpi.Window, opts Options) Result {
	limit := kpi.Limit(opts.TopN)
	inWindow := kpi.InWindow(records, sessionDate, w)

	completed := kpi.CountIf(inWindow, func(s PhysioSession) bool { return s.Status == StatusCompleted })
	canceled := kpi.CountIf(inWindow, func(s PhysioSession) bool { return s.Status == StatusCanceled })
	absent := kpi.CountIf(inWindow, func(s PhysioSession) bool { return s.Status == StatusAbsent })
	patients := kpi.UniqueCount(inWindow, func(s PhysioSession) string { return s.PatientID })
	durations := kpi.DefinedValues(inWindow, func(s PhysioSession) *float64 { return s.DurationMinutes })

	return Result{
		Sessions:               len(inWindow),
		Completed:              completed,
		Canceled:               canceled,
		Absent:                 absent,
		AdherenceRate:          kpi.Percentage(float64(completed), float64(len(inWindow)-canceled)),
		UniquePatients:         patients,
		SessionsPerPatient:     kpi.RatioN(float64(len(inWindow)), float64(patients), 1),
		AverageDurationMinutes: kpi.Round(kpi.Average(durations), 0),
		ByModality:             kpi.CountBy(inWindow, func(s PhysioSession) string { return s.Modality }, 0),
		TopTherapists:          kpi.CountBy(inWindow, func(s PhysioSession) string { return s.Therapist }, limit),
		ByCostCenter:           kpi.CountBy(inWindow, func(s PhysioSession) string { return s.CostCenter }, limit),
		Seasonality:            kpi.SeasonalityOf(records, sessionDate, w.Ref),
	}
}
