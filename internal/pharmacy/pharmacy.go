// Package pharmacy computes dispensing KPIs for medications and materials.
package pharmacy

import "github.com/hospitalops/kpi-engine/internal/kpi"

// Item kinds.
const (
	KindMedication = "medication"
	KindMaterial   = "material"
)

// DispenseRecord is one dispensing or return movement.
type DispenseRecord struct {
	ID              string   `json:"id"`
	Date            string   `json:"date"`
	Item            string   `json:"item"`
	Kind            string   `json:"kind"`
	Quantity        *float64 `json:"quantity,omitempty"`
	UnitCost        *float64 `json:"unit_cost,omitempty"`
	CostCenter      string   `json:"cost_center"`
	Brand           string   `json:"brand,omitempty"`
	IsAntimicrobial bool     `json:"is_antimicrobial"`
	IsReturn        bool     `json:"is_return"`
}

// Options tunes the calculation.
type Options struct {
	TopN int `json:"top_n"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{TopN: kpi.DefaultTopN}
}

// Result is the pharmacy KPI card.
type Result struct {
	Dispenses          int             `json:"dispenses"`
	ItemsDispensed     float64         `json:"items_dispensed"`
	ItemsReturned      float64         `json:"items_returned"`
	ReturnRate         float64         `json:"return_rate"`
	Medications        float64         `json:"medications"`
	Materials          float64         `json:"materials"`
	AntimicrobialShare float64         `json:"antimicrobial_share"`
	TotalCost          float64         `json:"total_cost"`
	TopItems           []kpi.Ranked    `json:"top_items"`
	TopMedications     []kpi.Ranked    `json:"top_medications"`
	TopMaterials       []kpi.Ranked    `json:"top_materials"`
	TopAntimicrobials  []kpi.Ranked    `json:"top_antimicrobials"`
	ByCostCenter       []kpi.Ranked    `json:"by_cost_center"`
	ByBrand            []kpi.Ranked    `json:"by_brand"`
	Seasonality        kpi.Seasonality `json:"seasonality"`
}

func dispenseDate(r DispenseRecord) string { return r.Date }
func quantity(r DispenseRecord) float64    { return kpi.Quantity(r.Quantity) }
func item(r DispenseRecord) string         { return r.Item }

// Calculate builds the pharmacy KPI card for the window. Returns are reported on their
// own and never enter the dispensing rankings.
func Calculate(records []DispenseRecord, w kpi.Window, opts Options) Result {
	limit := kpi.Limit(opts.TopN)
	inWindow := kpi.InWindow(records, dispenseDate, w)

	var dispensed, returns []DispenseRecord
	for _, r := range inWindow {
		if r.IsReturn {
			returns = append(returns, r)
			continue
		}
		dispensed = append(dispensed, r)
	}

	var itemsOut, itemsBack, meds, materials, antimicrobials, cost float64
	var medRecords, materialRecords, antimicrobialRecords []DispenseRecord
	for _, r := range dispensed {
		q := quantity(r)
		itemsOut += q
		switch r.Kind {
		case KindMedication:
			meds += q
			medRecords = append(medRecords, r)
			// Antimicrobials are a share of medications only.
			if r.IsAntimicrobial {
				antimicrobials += q
				antimicrobialRecords = append(antimicrobialRecords, r)
			}
		case KindMaterial:
			materials += q
			materialRecords = append(materialRecords, r)
		}
		if kpi.Defined(r.UnitCost) {
			cost += q * *r.UnitCost
		}
	}
	for _, r := range returns {
		itemsBack += quantity(r)
	}

	return Result{
		Dispenses:          len(dispensed),
		ItemsDispensed:     itemsOut,
		ItemsReturned:      itemsBack,
		ReturnRate:         kpi.ClampRate(kpi.Percentage(itemsBack, itemsOut)),
		Medications:        meds,
		Materials:          materials,
		AntimicrobialShare: kpi.ClampRate(kpi.Percentage(antimicrobials, meds)),
		TotalCost:          kpi.Round2(cost),
		TopItems:           kpi.SumBy(dispensed, item, quantity, limit),
		TopMedications:     kpi.SumBy(medRecords, item, quantity, limit),
		TopMaterials:       kpi.SumBy(materialRecords, item, quantity, limit),
		TopAntimicrobials:  kpi.SumBy(antimicrobialRecords, item, quantity, limit),
		ByCostCenter:       kpi.SumBy(dispensed, func(r DispenseRecord) string { return r.CostCenter }, quantity, limit),
		ByBrand:            kpi.SumBy(dispensed, func(r DispenseRecord) string { return r.Brand }, quantity, limit),
		Seasonality:        kpi.SeasonalityOf(records, dispenseDate, w.Ref),
	}
}
