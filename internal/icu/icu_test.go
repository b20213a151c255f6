package icu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hospitalops/kpi-engine/internal/kpi"
)

var ref = time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)

func TestCalculateICU(t *testing.T) {
	records := []ICUStay{
		{PatientID: "p1", Unit: "adult", AdmitDate: "2024-05-01", DischargeDate: "2024-05-05", Ventilated: true, VentilatorDays: kpi.Float(3), SeverityScore: kpi.Float(40)},
		{PatientID: "p2", Unit: "adult", AdmitDate: "2024-05-03", DischargeDate: "2024-05-04", Died: true, SeverityScore: kpi.Float(70)},
		{PatientID: "p3", Unit: "coronary", AdmitDate: "2024-05-18", Readmitted48Hours: true},
		{PatientID: "p4", Unit: "adult", AdmitDate: "2024-04-28"},
	}

	res := Calculate(records, kpi.NewWindow(kpi.PeriodMonth, ref), DefaultOptions())

	assert.Equal(t, 3, res.Admissions)
	assert.Equal(t, 2, res.Discharges)
	assert.Equal(t, 1, res.Deaths)
	assert.Equal(t, 50.0, res.MortalityRate)
	assert.Equal(t, 2, res.Occupied)
	assert.Equal(t, 20.0, res.OccupancyRate)
	assert.Equal(t, 33.0, res.VentilationRate)
	assert.Equal(t, 3.0, res.AverageVentilatorDays)
	assert.Equal(t, 2.5, res.AverageLengthOfStay)
	assert.Equal(t, 33.0, res.ReadmissionRate)
	assert.Equal(t, 55.0, res.AverageSeverityScore)
	assert.Equal(t, "adult", res.ByUnit[0].Key)
}

func TestOccupancyUsesConfiguredBeds(t *testing.T) {
	records := []ICUStay{{AdmitDate: "2024-05-01"}, {AdmitDate: "2024-05-02"}, {AdmitDate: "2024-05-03"}}
	res := Calculate(records, kpi.NewWindow(kpi.PeriodMonth, ref), Options{Beds: 2})
	assert.Equal(t, 100.0, res.OccupancyRate)

	res = Calculate(records, kpi.NewWindow(kpi.PeriodMonth, ref), Options{})
	assert.Equal(t, DefaultBeds, res.Beds)
	assert.Equal(t, 30.0, res.OccupancyRate)
}
