package laboratory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hospitalops/kpi-engine/internal/exams"
	"github.com/hospitalops/kpi-engine/internal/kpi"
)

func TestCalculateDelegatesToExams(t *testing.T) {
	w := kpi.NewWindow(kpi.PeriodMonth, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC))
	records := []LabExam{
		{Date: "2024-05-02", ExamName: "hemogram", Sector: "hematology", PatientID: "p1", Quantity: kpi.Float(2)},
		{Date: "2024-05-03", ExamName: "glucose", Sector: "biochemistry", PatientID: "p2", CriticalValue: true, TurnaroundHours: kpi.Float(6)},
	}
	canonical := []exams.Record{ToRecord(records[0]), ToRecord(records[1])}

	got := Calculate(records, w, DefaultOptions())
	assert.Equal(t, exams.Calculate(canonical, w, exams.DefaultOptions()), got)
	assert.Equal(t, "hematology", got.ByCategory[0].Key)
	assert.Equal(t, 50.0, got.CriticalRate)
}
