// Package laundry computes hospital laundry KPIs. It is also the shared calculator
// behind the linen hygiene module.
package laundry

import "github.com/hospitalops/kpi-engine/internal/kpi"

// Movement directions.
const (
	DirectionCollected = "collected"
	DirectionDelivered = "delivered"
)

// LaundryRecord is one weighed laundry movement.
type LaundryRecord struct {
	ID         string   `json:"id"`
	Date       string   `json:"date"`
	CostCenter string   `json:"cost_center"`
	ItemType   string   `json:"item_type"`
	Direction  string   `json:"direction"`
	WeightKg   *float64 `json:"weight_kg,omitempty"`
	Rewash     bool     `json:"rewash"`
	Cost       *float64 `json:"cost,omitempty"`
}

// Options tunes the calculation.
type Options struct {
	TopN int `json:"top_n"`

	// CostPerKg prices records that carry no cost of their own.
	CostPerKg   float64 `json:"cost_per_kg"`
	PatientDays float64 `json:"patient_days"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{TopN: kpi.DefaultTopN}
}

// Result is the laundry KPI card.
type Result struct {
	Movements       int             `json:"movements"`
	TotalKg         float64         `json:"total_kg"`
	CollectedKg     float64         `json:"collected_kg"`
	DeliveredKg     float64         `json:"delivered_kg"`
	RewashKg        float64         `json:"rewash_kg"`
	RewashRate      float64         `json:"rewash_rate"`
	TotalCost       float64         `json:"total_cost"`
	CostPerKg       float64         `json:"cost_per_kg"`
	KgPerPatientDay float64         `json:"kg_per_patient_day"`
	ByCostCenter    []kpi.Ranked    `json:"by_cost_center"`
	ByItemType      []kpi.Ranked    `json:"by_item_type"`
	Seasonality     kpi.Seasonality `json:"seasonality"`
}

func recordDate(r LaundryRecord) string { return r.Date }

// weight is the recorded kilograms, 0 when not weighed.
func weight(r LaundryRecord) float64 {
	if kpi.Defined(r.WeightKg) {
		return *r.WeightKg
	}
	return 0
}

// Calculate builds the laundry KPI card for the window.
func Calculate(records []LaundryRecord, w kpi.Window, opts Options) Result {
	limit := kpi.Limit(opts.TopN)
	inWindow := kpi.InWindow(records, recordDate, w)

	var total, collected, delivered, rewash, cost float64
	for _, r := range inWindow {
		kg := weight(r)
		total += kg
		switch r.Direction {
		case DirectionCollected:
			collected += kg
		case DirectionDelivered:
			delivered += kg
		}
		if r.Rewash {
			rewash += kg
		}
		if kpi.Defined(r.Cost) {
			cost += *r.Cost
		} else if opts.CostPerKg > 0 {
			cost += kg * opts.CostPerKg
		}
	}

	return Result{
		Movements:       len(inWindow),
		TotalKg:         kpi.Round2(total),
		CollectedKg:     kpi.Round2(collected),
		DeliveredKg:     kpi.Round2(delivered),
		RewashKg:        kpi.Round2(rewash),
		RewashRate:      kpi.PercentageN(rewash, total, 2),
		TotalCost:       kpi.Round2(cost),
		CostPerKg:       kpi.RatioN(cost, total, 2),
		KgPerPatientDay: kpi.RatioN(total, opts.PatientDays, 2),
		ByCostCenter:    kpi.SumBy(inWindow, func(r LaundryRecord) string { return r.CostCenter }, weight, limit),
		ByItemType:      kpi.SumBy(inWindow, func(r LaundryRecord) string { return r.ItemType }, weight, 0),
		Seasonality:     kpi.SeasonalityOf(records, recordDate, w.Ref),
	}
}
