package physio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hospitalops/kpi-engine/internal/kpi"
)

func TestAdherenceIgnoresCanceled(t *testing.T) {
	ref := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	records := []PhysioSession{
		{PatientID: "p1", Date: "2024-05-10", Status: StatusCompleted, Therapist: "ana", DurationMinutes: kpi.Float(40)},
		{PatientID: "p1", Date: "2024-05-10", Status: StatusCompleted, Therapist: "ana", DurationMinutes: kpi.Float(45)},
		{PatientID: "p2", Date: "2024-05-10", Status: StatusAbsent, Therapist: "bia"},
		{PatientID: "p2", Date: "2024-05-10", Status: StatusCanceled, Therapist: "bia"},
		{PatientID: "p3", Date: "2024-05-09", Status: StatusCompleted, Therapist: "bia"},
	}

	res := Calculate(records, kpi.NewWindow(kpi.PeriodDay, ref), DefaultOptions())

	assert.Equal(t, 4, res.Sessions)
	assert.Equal(t, 67.0, res.AdherenceRate)
	assert.Equal(t, 2, res.UniquePatients)
	assert.Equal(t, 2.0, res.SessionsPerPatient)
	assert.Equal(t, 43.0, res.AverageDurationMinutes)
	assert.Equal(t, "ana", res.TopTherapists[0].Key)

	all := Calculate(records[3:4], kpi.NewWindow(kpi.PeriodDay, ref), DefaultOptions())
	assert.Equal(t, 0.0, all.AdherenceRate)
}
