package safety

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hospitalops/kpi-engine/internal/kpi"
)

var ref = time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)

func TestCalculateSafetyRates(t *testing.T) {
	records := []SafetyIncident{
		{Date: "2024-05-02", Type: TypeAccident, Severity: "moderate", LostTime: true, LostDays: kpi.Float(5), CostCenter: "laundry"},
		{Date: "2024-05-10", Type: TypeAccident, Severity: "minor", CostCenter: "kitchen"},
		{Date: "2024-05-11", Type: TypeNearMiss, Severity: "minor", CostCenter: "laundry"},
		{Date: "2024-05-25", Type: TypeAccident, Severity: "minor"},
	}
	opts := DefaultOptions()
	opts.Employees = 500
	opts.HoursPerEmployeeMonth = 200

	res := Calculate(records, kpi.NewWindow(kpi.PeriodMonth, ref), opts)

	assert.Equal(t, 4, res.Incidents)
	assert.Equal(t, 3, res.Accidents)
	assert.Equal(t, 1, res.LostTimeAccidents)
	assert.Equal(t, 1, res.NearMisses)
	assert.Equal(t, 100000.0, res.HoursWorked)
	assert.Equal(t, 30.0, res.FrequencyRate)
	assert.Equal(t, 50.0, res.SeverityRate)
	assert.Equal(t, 10, res.DaysSinceLastAccident)
	assert.Equal(t, "laundry", res.ByCostCenter[0].Key)
}

func TestRatesZeroWithoutEmployees(t *testing.T) {
	records := []SafetyIncident{{Date: "2024-05-02", Type: TypeAccident}}
	res := Calculate(records, kpi.NewWindow(kpi.PeriodMonth, ref), DefaultOptions())
	assert.Equal(t, 0.0, res.FrequencyRate)
	assert.Equal(t, 0.0, res.SeverityRate)
}

func TestDaysSinceLastAccidentWithoutAccidents(t *testing.T) {
	records := []SafetyIncident{{Date: "2024-05-02", Type: TypeNearMiss}}
	assert.Equal(t, -1, DaysSinceLastAccident(records, ref))
	assert.Equal(t, -1, DaysSinceLastAccident(nil, ref))
}
