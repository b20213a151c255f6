// Package imaging adapts radiology and imaging exams onto the shared exams calculator.
package imaging

import (
	"github.com/hospitalops/kpi-engine/internal/exams"
	"github.com/hospitalops/kpi-engine/internal/kpi"
)

// ImagingExam is one imaging study.
type ImagingExam struct {
	ID            string   `json:"id"`
	Date          string   `json:"date"`
	Procedure     string   `json:"procedure"`
	Modality      string   `json:"modality"`
	CostCenter    string   `json:"cost_center"`
	InsurancePlan string   `json:"insurance_plan,omitempty"`
	PatientID     string   `json:"patient_id,omitempty"`
	Quantity      *float64 `json:"quantity,omitempty"`
	ReportHours   *float64 `json:"report_hours,omitempty"`
	UrgentFinding bool     `json:"urgent_finding"`
}

type (
	Options = exams.Options
	Result  = exams.Result
)

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options { return exams.DefaultOptions() }

// ToRecord maps an imaging study onto the canonical shape; the modality is the category.
func ToRecord(e ImagingExam) exams.Record {
	return exams.Record{
		Date:            e.Date,
		Category:        e.Modality,
		ExamName:        e.Procedure,
		CostCenter:      e.CostCenter,
		InsurancePlan:   e.InsurancePlan,
		PatientID:       e.PatientID,
		Quantity:        e.Quantity,
		TurnaroundHours: e.ReportHours,
		Critical:        e.UrgentFinding,
	}
}

// Calculate builds the imaging KPI card.
func Calculate(records []ImagingExam, w kpi.Window, opts Options) Result {
	canonical := make([]exams.Record, len(records))
	for i, e := range records {
		canonical[i] = ToRecord(e)
	}
	return exams.Calculate(canonical, w, opts)
}
