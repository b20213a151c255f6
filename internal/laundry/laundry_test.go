package laundry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospitalops/kpi-engine/internal/kpi"
)

var ref = time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

func sample() []LaundryRecord {
	return []LaundryRecord{
		{Date: "2024-05-01", CostCenter: "icu", ItemType: "sheet", Direction: DirectionCollected, WeightKg: kpi.Float(40)},
		{Date: "2024-05-02", CostCenter: "icu", ItemType: "gown", Direction: DirectionDelivered, WeightKg: kpi.Float(35), Rewash: true, Cost: kpi.Float(100)},
		{Date: "2024-05-03", CostCenter: "ward", ItemType: "sheet", Direction: DirectionCollected, WeightKg: kpi.Float(25)},
		{Date: "2024-05-04", CostCenter: "ward", ItemType: "sheet", Direction: DirectionCollected},
		{Date: "2024-04-04", CostCenter: "ward", ItemType: "sheet", Direction: DirectionCollected, WeightKg: kpi.Float(500)},
	}
}

func TestCalculateLaundry(t *testing.T) {
	opts := DefaultOptions()
	opts.CostPerKg = 2.5
	opts.PatientDays = 50

	res := Calculate(sample(), kpi.NewWindow(kpi.PeriodMonth, ref), opts)

	assert.Equal(t, 4, res.Movements)
	assert.Equal(t, 100.0, res.TotalKg)
	assert.Equal(t, 65.0, res.CollectedKg)
	assert.Equal(t, 35.0, res.DeliveredKg)
	assert.Equal(t, 35.0, res.RewashRate)
	assert.Equal(t, 262.5, res.TotalCost)
	assert.Equal(t, 2.63, res.CostPerKg)
	assert.Equal(t, 2.0, res.KgPerPatientDay)

	require.Len(t, res.ByCostCenter, 2)
	assert.Equal(t, "icu", res.ByCostCenter[0].Key)
	assert.Equal(t, 75.0, res.ByCostCenter[0].Value)
}

func TestDefaultCostPerKgIsZero(t *testing.T) {
	res := Calculate(sample(), kpi.NewWindow(kpi.PeriodMonth, ref), DefaultOptions())
	assert.Equal(t, 100.0, res.TotalCost)
	assert.Equal(t, 0.0, res.KgPerPatientDay)
}
