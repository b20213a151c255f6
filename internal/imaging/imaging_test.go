package imaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospitalops/kpi-engine/internal/kpi"
	"github.com/hospitalops/kpi-engine/internal/laboratory"
)

func TestImagingMatchesLaboratoryForIdenticalInput(t *testing.T) {
	w := kpi.NewWindow(kpi.PeriodMonth, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC))
	lab := []laboratory.LabExam{
		{Date: "2024-05-02", ExamName: "chest", Sector: "xray", CostCenter: "er", PatientID: "p1", Quantity: kpi.Float(3), TurnaroundHours: kpi.Float(2)},
		{Date: "2024-05-09", ExamName: "skull", Sector: "ct", CostCenter: "icu", PatientID: "p2", CriticalValue: true},
		{Date: "2024-04-09", ExamName: "skull", Sector: "ct", CostCenter: "icu", PatientID: "p2"},
	}
	img := make([]ImagingExam, len(lab))
	for i, e := range lab {
		img[i] = ImagingExam{
			Date:          e.Date,
			Procedure:     e.ExamName,
			Modality:      e.Sector,
			CostCenter:    e.CostCenter,
			PatientID:     e.PatientID,
			Quantity:      e.Quantity,
			ReportHours:   e.TurnaroundHours,
			UrgentFinding: e.CriticalValue,
		}
	}

	want := laboratory.Calculate(lab, w, laboratory.DefaultOptions())
	got := Calculate(img, w, DefaultOptions())
	assert.Equal(t, want, got)

	require.NotEmpty(t, got.ByCategory)
	assert.Equal(t, "xray", got.ByCategory[0].Key)
	assert.Equal(t, 4.0, got.Total)
}
