package beds

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospitalops/kpi-engine/internal/kpi"
)

var window = kpi.NewWindow(kpi.PeriodDay, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))

func bedsWith(costCenter string, statuses ...string) []BedRecord {
	out := make([]BedRecord, 0, len(statuses))
	for i, s := range statuses {
		out = append(out, BedRecord{
			ID:         costCenter + "-" + string(rune('a'+i)),
			CostCenter: costCenter,
			BedType:    "ward",
			Status:     s,
		})
	}
	return out
}

func TestOccupancyCountsReservedBeds(t *testing.T) {
	records := bedsWith("icu-1",
		StatusOccupied, StatusOccupied, StatusOccupied,
		StatusReserved, StatusReserved,
		StatusMaintenance,
	)
	capacities := []RegisteredBedCapacity{{CostCenter: "icu-1", TotalBeds: 10}}

	res := Calculate(records, capacities, window, DefaultOptions())

	assert.Equal(t, 5, res.Census)
	assert.Equal(t, 10, res.Capacity)
	assert.Equal(t, 50.0, res.OccupancyRate)
	assert.Equal(t, 17.0, res.BlockedRate)
	assert.Equal(t, 100.0, res.OperationalRate)

	require.Len(t, res.ByCostCenter, 1)
	assert.Equal(t, 50.0, res.ByCostCenter[0].Rate)
	assert.False(t, res.ByCostCenter[0].OverCapacity)
}

func TestCapacityFallbacks(t *testing.T) {
	records := bedsWith("ward", StatusOccupied, StatusAvailable, StatusAvailable, StatusAvailable)

	res := Calculate(records, nil, window, DefaultOptions())
	assert.Equal(t, 4, res.Capacity)
	assert.Equal(t, 25.0, res.OccupancyRate)

	opts := DefaultOptions()
	opts.DefaultCapacity = 20
	res = Calculate(records, nil, window, opts)
	assert.Equal(t, 20, res.Capacity)
	assert.Equal(t, 5.0, res.OccupancyRate)
}

func TestOccupancyClampedAndOverCapacityFlagged(t *testing.T) {
	records := bedsWith("er", StatusOccupied, StatusOccupied, StatusReserved)
	capacities := []RegisteredBedCapacity{{CostCenter: "er", TotalBeds: 2}}

	res := Calculate(records, capacities, window, DefaultOptions())
	assert.Equal(t, 100.0, res.OccupancyRate)
	require.Len(t, res.ByCostCenter, 1)
	assert.True(t, res.ByCostCenter[0].OverCapacity)
	assert.Equal(t, 100.0, res.ByCostCenter[0].Rate)
}

func TestByCostCenterSortedByRate(t *testing.T) {
	records := append(bedsWith("a", StatusAvailable, StatusOccupied), bedsWith("b", StatusOccupied, StatusOccupied)...)
	capacities := []RegisteredBedCapacity{{CostCenter: "a", TotalBeds: 4}, {CostCenter: "b", TotalBeds: 2}, {CostCenter: "c", TotalBeds: 3}}

	rows := ByCostCenter(records, capacities)
	require.Len(t, rows, 3)
	assert.Equal(t, "b", rows[0].CostCenter)
	assert.Equal(t, "a", rows[1].CostCenter)
	assert.Equal(t, 25.0, rows[1].Rate)
	assert.Equal(t, "c", rows[2].CostCenter)
	assert.Equal(t, 0, rows[2].Census)
}

func TestEmptySnapshot(t *testing.T) {
	res := Calculate(nil, nil, window, DefaultOptions())
	assert.Equal(t, 0.0, res.OccupancyRate)
	assert.Equal(t, 0.0, res.OperationalRate)
	assert.Empty(t, res.ByCostCenter)
}
