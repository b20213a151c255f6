// Package laboratory adapts clinical laboratory exams onto the shared exams calculator.
package laboratory

import (
	"github.com/hospitalops/kpi-engine/internal/exams"
	"github.com/hospitalops/kpi-engine/internal/kpi"
)

// LabExam is one laboratory exam request.
type LabExam struct {
	ID              string   `json:"id"`
	Date            string   `json:"date"`
	ExamName        string   `json:"exam_name"`
	Sector          string   `json:"sector"`
	CostCenter      string   `json:"cost_center"`
	InsurancePlan   string   `json:"insurance_plan,omitempty"`
	PatientID       string   `json:"patient_id,omitempty"`
	Quantity        *float64 `json:"quantity,omitempty"`
	TurnaroundHours *float64 `json:"turnaround_hours,omitempty"`
	CriticalValue   bool     `json:"critical_value"`
}

// Options and Result are shared with the imaging module.
type (
	Options = exams.Options
	Result  = exams.Result
)

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options { return exams.DefaultOptions() }

// ToRecord maps a lab exam onto the canonical shape; the sector is the category.
func ToRecord(e LabExam) exams.Record {
	return exams.Record{
		Date:            e.Date,
		Category:        e.Sector,
		ExamName:        e.ExamName,
		CostCenter:      e.CostCenter,
		InsurancePlan:   e.InsurancePlan,
		PatientID:       e.PatientID,
		Quantity:        e.Quantity,
		TurnaroundHours: e.TurnaroundHours,
		Critical:        e.CriticalValue,
	}
}

// Calculate builds the laboratory KPI card.
func Calculate(records []LabExam, w kpi.Window, opts Options) Result {
	canonical := make([]exams.Record, len(records))
	for i, e := range records {
		canonical[i] = ToRecord(e)
	}
	return exams.Calculate(canonical, w, opts)
}
