// Package exams is the shared calculator behind the laboratory and imaging modules.
// Each module maps its native records onto Record and delegates to Calculate.
package exams

import "github.com/hospitalops/kpi-engine/internal/kpi"

// Record is the canonical diagnostic exam row.
type Record struct {
	Date            string
	Category        string
	ExamName        string
	CostCenter      string
	InsurancePlan   string
	PatientID       string
	Quantity        *float64
	TurnaroundHours *float64
	Critical        bool
}

// Options tunes the calculation.
type Options struct {
	TopN int `json:"top_n"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{TopN: kpi.DefaultTopN}
}

// Result is the exams KPI card.
type Result struct {
	Total                  float64         `json:"total"`
	Requests               int             `json:"requests"`
	UniquePatients         int             `json:"unique_patients"`
	ExamsPerPatient        float64         `json:"exams_per_patient"`
	CriticalResults        int             `json:"critical_results"`
	CriticalRate           float64         `json:"critical_rate"`
	AverageTurnaroundHours float64         `json:"average_turnaround_hours"`
	TopExams               []kpi.Ranked    `json:"top_exams"`
	ByCategory             []kpi.Ranked    `json:"by_category"`
	ByCostCenter           []kpi.Ranked    `json:"by_cost_center"`
	ByInsurance            []kpi.Ranked    `json:"by_insurance"`
	MonthOverMonth         float64         `json:"month_over_month"`
	Seasonality            kpi.Seasonality `json:"seasonality"`
}

func recordDate(r Record) string         { return r.Date }
func recordQuantity(r Record) float64    { return kpi.Quantity(r.Quantity) }
func recordTurnaround(r Record) *float64 { return r.TurnaroundHours }

// Calculate builds the exams KPI card for the window.
func Calculate(records []Record, w kpi.Window, opts Options) Result {
	limit := kpi.Limit(opts.TopN)
	inWindow := kpi.InWindow(records, recordDate, w)

	var total float64
	for _, r := range inWindow {
		total += recordQuantity(r)
	}
	critical := kpi.CountIf(inWindow, func(r Record) bool { return r.Critical })
	patients := kpi.UniqueCount(inWindow, func(r Record) string { return r.PatientID })
	dates := kpi.Dates(records, recordDate, w.Location())

	return Result{
		Total:                  total,
		Requests:               len(inWindow),
		UniquePatients:         patients,
		ExamsPerPatient:        kpi.RatioN(total, float64(patients), 2),
		CriticalResults:        critical,
		CriticalRate:           kpi.PercentageN(float64(critical), float64(len(inWindow)), 2),
		AverageTurnaroundHours: kpi.Round1(kpi.Average(kpi.DefinedValues(inWindow, recordTurnaround))),
		TopExams:               kpi.SumBy(inWindow, func(r Record) string { return r.ExamName }, recordQuantity, limit),
		ByCategory:             kpi.SumBy(inWindow, func(r Record) string { return r.Category }, recordQuantity, 0),
		ByCostCenter:           kpi.SumBy(inWindow, func(r Record) string { return r.CostCenter }, recordQuantity, limit),
		ByInsurance:            kpi.SumBy(inWindow, func(r Record) string { return r.InsurancePlan }, recordQuantity, 0),
		MonthOverMonth:         kpi.MonthOverMonth(dates, w.Ref),
		Seasonality:            kpi.EstimateSeasonality(dates, w.Ref),
	}
}
