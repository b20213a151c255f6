package linen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hospitalops/kpi-engine/internal/kpi"
	"github.com/hospitalops/kpi-engine/internal/laundry"
)

func TestLinenMatchesLaundryForIdenticalInput(t *testing.T) {
	w := kpi.NewWindow(kpi.PeriodMonth, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))
	hygiene := []HygieneRecord{
		{ID: "1", Date: "2024-05-01", Sector: "icu", Piece: "sheet", Movement: laundry.DirectionCollected, Kilograms: kpi.Float(12.5)},
		{ID: "2", Date: "2024-05-03", Sector: "er", Piece: "towel", Movement: laundry.DirectionDelivered, Kilograms: kpi.Float(8), Reprocessed: true, ServiceCost: kpi.Float(30)},
		{ID: "3", Date: "2024-03-03", Sector: "er", Piece: "towel", Movement: laundry.DirectionDelivered, Kilograms: kpi.Float(8)},
	}
	records := make([]laundry.LaundryRecord, len(hygiene))
	for i, h := range hygiene {
		records[i] = laundry.LaundryRecord{
			ID:         h.ID,
			Date:       h.Date,
			CostCenter: h.Sector,
			ItemType:   h.Piece,
			Direction:  h.Movement,
			WeightKg:   h.Kilograms,
			Rewash:     h.Reprocessed,
			Cost:       h.ServiceCost,
		}
	}
	opts := DefaultOptions()
	opts.CostPerKg = 4

	assert.Equal(t, laundry.Calculate(records, w, opts), Calculate(hygiene, w, opts))

	res := Calculate(hygiene, w, opts)
	assert.Equal(t, 20.5, res.TotalKg)
	assert.Equal(t, 80.0, res.TotalCost)
	assert.Equal(t, 39.02, res.RewashRate)
}
