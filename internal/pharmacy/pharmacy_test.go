package pharmacy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospitalops/kpi-engine/internal/kpi"
)

var ref = time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)

func TestCalculateExcludesReturnsFromRankings(t *testing.T) {
	records := []DispenseRecord{
		{Date: "2024-05-01", Item: "dipyrone", Kind: KindMedication, Quantity: kpi.Float(10), UnitCost: kpi.Float(0.5), CostCenter: "er"},
		{Date: "2024-05-02", Item: "ceftriaxone", Kind: KindMedication, Quantity: kpi.Float(4), UnitCost: kpi.Float(12.25), IsAntimicrobial: true, CostCenter: "icu"},
		{Date: "2024-05-03", Item: "gauze", Kind: KindMaterial, Quantity: kpi.Float(6), CostCenter: "er"},
		{Date: "2024-05-04", Item: "ceftriaxone", Kind: KindMedication, Quantity: kpi.Float(50), IsReturn: true},
		{Date: "2024-04-04", Item: "gauze", Kind: KindMaterial, Quantity: kpi.Float(99)},
	}

	res := Calculate(records, kpi.NewWindow(kpi.PeriodMonth, ref), DefaultOptions())

	assert.Equal(t, 3, res.Dispenses)
	assert.Equal(t, 20.0, res.ItemsDispensed)
	assert.Equal(t, 50.0, res.ItemsReturned)
	assert.Equal(t, 100.0, res.ReturnRate)
	assert.Equal(t, 14.0, res.Medications)
	assert.Equal(t, 6.0, res.Materials)
	assert.Equal(t, 29.0, res.AntimicrobialShare)
	assert.Equal(t, 54.0, res.TotalCost)

	require.Len(t, res.TopItems, 3)
	assert.Equal(t, "dipyrone", res.TopItems[0].Key)
	assert.Equal(t, 4.0, res.TopItems[2].Value)
	require.Len(t, res.TopAntimicrobials, 1)
	assert.Equal(t, "ceftriaxone", res.TopAntimicrobials[0].Key)
	assert.Equal(t, 4.0, res.TopAntimicrobials[0].Value)
	assert.Equal(t, "er", res.ByCostCenter[0].Key)
	assert.Equal(t, 16.0, res.ByCostCenter[0].Value)
}

func TestMissingQuantityCountsAsOne(t *testing.T) {
	records := []DispenseRecord{
		{Date: "2024-05-01", Item: "saline", Kind: KindMaterial},
		{Date: "2024-05-01", Item: "saline", Kind: KindMaterial, Quantity: kpi.Float(-3)},
	}
	res := Calculate(records, kpi.NewWindow(kpi.PeriodDay, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)), DefaultOptions())
	assert.Equal(t, 2.0, res.ItemsDispensed)
	assert.Equal(t, 0.0, res.TotalCost)
	assert.Equal(t, 0.0, res.AntimicrobialShare)
}

func TestAntimicrobialShareCountsMedicationsOnly(t *testing.T) {
	records := []DispenseRecord{
		{Date: "2024-05-05", Item: "dipyrone", Kind: KindMedication, Quantity: kpi.Float(1)},
		{Date: "2024-05-05", Item: "unlabelled", IsAntimicrobial: true, Quantity: kpi.Float(5)},
		{Date: "2024-05-06", Item: "swab", Kind: KindMaterial, IsAntimicrobial: true, Quantity: kpi.Float(2)},
	}

	res := Calculate(records, kpi.NewWindow(kpi.PeriodMonth, ref), DefaultOptions())

	assert.Equal(t, 8.0, res.ItemsDispensed)
	assert.Equal(t, 1.0, res.Medications)
	assert.Equal(t, 0.0, res.AntimicrobialShare)
	assert.Empty(t, res.TopAntimicrobials)

	records = append(records, DispenseRecord{Date: "2024-05-07", Item: "vancomycin", Kind: KindMedication, IsAntimicrobial: true, Quantity: kpi.Float(3)})
	res = Calculate(records, kpi.NewWindow(kpi.PeriodMonth, ref), DefaultOptions())
	assert.Equal(t, 75.0, res.AntimicrobialShare)
	assert.LessOrEqual(t, res.AntimicrobialShare, 100.0)
	require.Len(t, res.TopAntimicrobials, 1)
	assert.Equal(t, "vancomycin", res.TopAntimicrobials[0].Key)
}
