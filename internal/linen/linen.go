// Package linen covers linen hygiene (rouparia). Hygiene records are mapped onto laundry
// records and computed by the laundry calculator.
package linen

import (
	"github.com/hospitalops/kpi-engine/internal/kpi"
	"github.com/hospitalops/kpi-engine/internal/laundry"
)

// HygieneRecord is one linen hygiene movement as registered by the rouparia.
type HygieneRecord struct {
	ID          string   `json:"id"`
	Date        string   `json:"date"`
	Sector      string   `json:"sector"`
	Piece       string   `json:"piece"`
	Movement    string   `json:"movement"`
	Kilograms   *float64 `json:"kilograms,omitempty"`
	Reprocessed bool     `json:"reprocessed"`
	ServiceCost *float64 `json:"service_cost,omitempty"`
}

type (
	Options = laundry.Options
	Result  = laundry.Result
)

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options { return laundry.DefaultOptions() }

// ToLaundry maps a hygiene record onto the laundry shape.
func ToLaundry(r HygieneRecord) laundry.LaundryRecord {
	return laundry.LaundryRecord{
		ID:         r.ID,
		Date:       r.Date,
		CostCenter: r.Sector,
		ItemType:   r.Piece,
		Direction:  r.Movement,
		WeightKg:   r.Kilograms,
		Rewash:     r.Reprocessed,
		Cost:       r.ServiceCost,
	}
}

// Calculate builds the linen hygiene KPI card.
func Calculate(records []HygieneRecord, w kpi.Window, opts Options) Result {
	mapped := make([]laundry.LaundryRecord, len(records))
	for i, r := range records {
		mapped[i] = ToLaundry(r)
	}
	return laundry.Calculate(mapped, w, opts)
}
