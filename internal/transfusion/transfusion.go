// Package transfusion computes blood bank KPIs (agência transfusional).
package transfusion

import "github.com/hospitalops/kpi-engine/internal/kpi"

// TransfusionRecord is one transfusion episode.
type TransfusionRecord struct {
	ID             string   `json:"id"`
	Date           string   `json:"date"`
	PatientID      string   `json:"patient_id"`
	Component      string   `json:"component"`
	BloodType      string   `json:"blood_type"`
	CostCenter     string   `json:"cost_center"`
	Units          *float64 `json:"units,omitempty"`
	DiscardedUnits *float64 `json:"discarded_units,omitempty"`
	Reaction       bool     `json:"reaction"`
}

// Options tunes the calculation.
type Options struct {
	TopN int `json:"top_n"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{TopN: kpi.DefaultTopN}
}

// Result is the transfusion KPI card.
type Result struct {
	Transfusions    int             `json:"transfusions"`
	Units           float64         `json:"units"`
	DiscardedUnits  float64         `json:"discarded_units"`
	UniquePatients  int             `json:"unique_patients"`
	UnitsPerPatient float64         `json:"units_per_patient"`
	Reactions       int             `json:"reactions"`
	ReactionRate    float64         `json:"reaction_rate"`
	DiscardRate     float64         `json:"discard_rate"`
	ByComponent     []kpi.Ranked    `json:"by_component"`
	ByBloodType     []kpi.Ranked    `json:"by_blood_type"`
	ByCostCenter    []kpi.Ranked    `json:"by_cost_center"`
	Seasonality     kpi.Seasonality `json:"seasonality"`
}

func transfusionDate(r TransfusionRecord) string { return r.Date }
func units(r TransfusionRecord) float64          { return kpi.Quantity(r.Units) }

// Calculate builds the transfusion KPI card for the window.
func Calculate(records []TransfusionRecord, w kpi.Window, opts Options) Result {
	limit := kpi.Limit(opts.TopN)
	inWindow := kpi.InWindow(records, transfusionDate, w)

	var total float64
	for _, r := range inWindow {
		total += units(r)
	}
	discarded := kpi.Sum(kpi.DefinedValues(inWindow, func(r TransfusionRecord) *float64 { return r.DiscardedUnits }))
	reactions := kpi.CountIf(inWindow, func(r TransfusionRecord) bool { return r.Reaction })
	patients := kpi.UniqueCount(inWindow, func(r TransfusionRecord) string { return r.PatientID })

	return Result{
		Transfusions:    len(inWindow),
		Units:           total,
		DiscardedUnits:  discarded,
		UniquePatients:  patients,
		UnitsPerPatient: kpi.RatioN(total, float64(patients), 2),
		Reactions:       reactions,
		ReactionRate:    kpi.PercentageN(float64(reactions), float64(len(inWindow)), 2),
		DiscardRate:     kpi.ClampRate(kpi.PercentageN(discarded, total, 2)),
		ByComponent:     kpi.SumBy(inWindow, func(r TransfusionRecord) string { return r.Component }, units, 0),
		ByBloodType:     kpi.SumBy(inWindow, func(r TransfusionRecord) string { return r.BloodType }, units, 0),
		ByCostCenter:    kpi.SumBy(inWindow, func(r TransfusionRecord) string { return r.CostCenter }, units, limit),
		Seasonality:     kpi.SeasonalityOf(records, transfusionDate, w.Ref),
	}
}
