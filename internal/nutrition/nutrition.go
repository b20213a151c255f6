// Package nutrition computes clinical nutrition therapy KPIs.
package nutrition

import "github.com/hospitalops/kpi-engine/internal/kpi"

// Feeding routes.
const (
	RouteOral       = "oral"
	RouteEnteral    = "enteral"
	RouteParenteral = "parenteral"
)

// NutritionRecord is one daily nutrition prescription for a patient.
type NutritionRecord struct {
	ID              string   `json:"id"`
	PatientID       string   `json:"patient_id"`
	Date            string   `json:"date"`
	DietType        string   `json:"diet_type"`
	Route           string   `json:"route"`
	CostCenter      string   `json:"cost_center"`
	Meals           *float64 `json:"meals,omitempty"`
	PrescribedKcal  *float64 `json:"prescribed_kcal,omitempty"`
	DeliveredKcal   *float64 `json:"delivered_kcal,omitempty"`
	NutritionalRisk string   `json:"nutritional_risk,omitempty"`
}

// Options tunes the calculation.
type Options struct {
	TopN int `json:"top_n"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{TopN: kpi.DefaultTopN}
}

// Result is the nutrition KPI card.
type Result struct {
	Records         int             `json:"records"`
	UniquePatients  int             `json:"unique_patients"`
	Meals           float64         `json:"meals"`
	ByDietType      []kpi.Ranked    `json:"by_diet_type"`
	ByRoute         []kpi.Ranked    `json:"by_route"`
	EnteralShare    float64         `json:"enteral_share"`
	ParenteralShare float64         `json:"parenteral_share"`
	CaloricAdequacy float64         `json:"caloric_adequacy"`
	HighRiskRate    float64         `json:"high_risk_rate"`
	ByCostCenter    []kpi.Ranked    `json:"by_cost_center"`
	Seasonality     kpi.Seasonality `json:"seasonality"`
}

// HighRisk marks a patient screened at high nutritional risk.
const HighRisk = "high"

func recordDate(r NutritionRecord) string { return r.Date }

// Calculate builds the nutrition KPI card for the window.
func Calculate(records []NutritionRecord, w kpi.Window, opts Options) Result {
	limit := kpi.Limit(opts.TopN)
	inWindow := kpi.InWindow(records, recordDate, w)
	total := float64(len(inWindow))

	enteral := kpi.CountIf(inWindow, func(r NutritionRecord) bool { return r.Route == RouteEnteral })
	parenteral := kpi.CountIf(inWindow, func(r NutritionRecord) bool { return r.Route == RouteParenteral })
	highRisk := kpi.CountIf(inWindow, func(r NutritionRecord) bool { return r.NutritionalRisk == HighRisk })

	return Result{
		Records:         len(inWindow),
		UniquePatients:  kpi.UniqueCount(inWindow, func(r NutritionRecord) string { return r.PatientID }),
		Meals:           kpi.Sum(kpi.DefinedValues(inWindow, func(r NutritionRecord) *float64 { return r.Meals })),
		ByDietType:      kpi.CountBy(inWindow, func(r NutritionRecord) string { return r.DietType }, limit),
		ByRoute:         kpi.CountBy(inWindow, func(r NutritionRecord) string { return r.Route }, 0),
		EnteralShare:    kpi.Percentage(float64(enteral), total),
		ParenteralShare: kpi.Percentage(float64(parenteral), total),
		CaloricAdequacy: CaloricAdequacy(inWindow),
		HighRiskRate:    kpi.Percentage(float64(highRisk), total),
		ByCostCenter:    kpi.CountBy(inWindow, func(r NutritionRecord) string { return r.CostCenter }, limit),
		Seasonality:     kpi.SeasonalityOf(records, recordDate, w.Ref),
	}
}

// CaloricAdequacy is delivered over prescribed calories, counting only records where both
// are known, clamped to [0, 100].
func CaloricAdequacy(records []NutritionRecord) float64 {
	var prescribed, delivered float64
	for _, r := range records {
		if !kpi.Defined(r.PrescribedKcal) || !kpi.Defined(r.DeliveredKcal) {
			continue
		}
		prescribed += *r.PrescribedKcal
		delivered += *r.DeliveredKcal
	}
	return kpi.ClampRate(kpi.Percentage(delivered, prescribed))
}
