package scheduling

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospitalops/kpi-engine/internal/kpi"
)

var ref = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func appointments(n int, date, status string) []Appointment {
	out := make([]Appointment, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Appointment{
			ID:           fmt.Sprintf("%s-%s-%d", date, status, i),
			PatientID:    fmt.Sprintf("p-%d", i),
			Date:         date,
			Time:         "09:00",
			Specialty:    "cardiology",
			Professional: "dr-a",
			Status:       status,
		})
	}
	return out
}

func TestNoShowRateScenario(t *testing.T) {
	var records []Appointment
	records = append(records, appointments(17, "2024-05-10", StatusCompleted)...)
	records = append(records, appointments(3, "2024-05-10", StatusNoShow)...)

	assert.Equal(t, 15.0, NoShowRate(records))

	res := Calculate(records, kpi.NewWindow(kpi.PeriodDay, ref), DefaultOptions())
	assert.Equal(t, 20, res.Total)
	assert.Equal(t, 3, res.NoShows)
	assert.Equal(t, 15.0, res.NoShowRate)
	assert.Equal(t, 85.0, res.CompletionRate)
	assert.Equal(t, 85.0, res.ConfirmationRate)
}

func TestCalculateRatesAndUtilization(t *testing.T) {
	var records []Appointment
	records = append(records, appointments(2, "2024-05-10", StatusConfirmed)...)
	records = append(records, appointments(1, "2024-05-10", StatusScheduled)...)
	records = append(records, appointments(1, "2024-05-10", StatusCanceled)...)
	records = append(records, appointments(1, "2024-05-09", StatusCompleted)...)

	opts := DefaultOptions()
	opts.SlotsPerDay = 6
	res := Calculate(records, kpi.NewWindow(kpi.PeriodDay, ref), opts)

	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 25.0, res.CancellationRate)
	assert.Equal(t, 50.0, res.ConfirmationRate)
	assert.Equal(t, 50.0, res.SlotUtilization)

	opts.SlotsPerDay = 0
	res = Calculate(records, kpi.NewWindow(kpi.PeriodDay, ref), opts)
	assert.Equal(t, 0.0, res.SlotUtilization)

	opts.SlotsPerDay = 1
	res = Calculate(records, kpi.NewWindow(kpi.PeriodDay, ref), opts)
	assert.Equal(t, 100.0, res.SlotUtilization)
}

func TestUpcomingWindow(t *testing.T) {
	var records []Appointment
	records = append(records, appointments(1, "2024-05-10", StatusScheduled)...)
	records = append(records, appointments(1, "2024-05-11", StatusScheduled)...)
	records = append(records, appointments(1, "2024-05-17", StatusConfirmed)...)
	records = append(records, appointments(1, "2024-05-18", StatusScheduled)...)
	records = append(records, appointments(1, "2024-05-12", StatusCanceled)...)

	assert.Equal(t, 2, Upcoming(records, ref))
}

func TestUnknownStatusKeptInDistribution(t *testing.T) {
	records := appointments(2, "2024-05-10", "rescheduled")
	records = append(records, appointments(1, "2024-05-10", StatusNoShow)...)

	res := Calculate(records, kpi.NewWindow(kpi.PeriodMonth, ref), DefaultOptions())
	require.Len(t, res.ByStatus, 2)
	assert.Equal(t, "rescheduled", res.ByStatus[0].Key)
	assert.Equal(t, 66.7, res.ByStatus[0].Percent)
}

func TestNoShowBySpecialtySorted(t *testing.T) {
	records := appointments(4, "2024-05-10", StatusCompleted)
	ortho := appointments(2, "2024-05-10", StatusNoShow)
	for i := range ortho {
		ortho[i].Specialty = "orthopedics"
	}
	records = append(records, ortho...)

	res := Calculate(records, kpi.NewWindow(kpi.PeriodDay, ref), DefaultOptions())
	require.Len(t, res.NoShowBySpecialty, 2)
	assert.Equal(t, "orthopedics", res.NoShowBySpecialty[0].Specialty)
	assert.Equal(t, 100.0, res.NoShowBySpecialty[0].Rate)
	assert.Equal(t, 0.0, res.NoShowBySpecialty[1].Rate)
}

func TestEmptyCollection(t *testing.T) {
	res := Calculate(nil, kpi.NewWindow(kpi.PeriodMonth, ref), DefaultOptions())
	assert.Equal(t, 0.0, res.NoShowRate)
	assert.Empty(t, res.ByStatus)
	assert.Empty(t, res.NoShowBySpecialty)
}
