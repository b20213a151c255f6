package nutrition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hospitalops/kpi-engine/internal/kpi"
)

func TestCalculateNutrition(t *testing.T) {
	ref := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	records := []NutritionRecord{
		{PatientID: "p1", Date: "2024-05-01", Route: RouteEnteral, DietType: "hypercaloric", Meals: kpi.Float(5), PrescribedKcal: kpi.Float(2000), DeliveredKcal: kpi.Float(1500), NutritionalRisk: HighRisk},
		{PatientID: "p2", Date: "2024-05-02", Route: RouteOral, DietType: "general", Meals: kpi.Float(6), PrescribedKcal: kpi.Float(1800)},
		{PatientID: "p3", Date: "2024-05-03", Route: RouteParenteral, DietType: "hypercaloric", PrescribedKcal: kpi.Float(1000), DeliveredKcal: kpi.Float(1000)},
		{PatientID: "p4", Date: "2024-05-04", Route: RouteOral, DietType: ""},
	}

	res := Calculate(records, kpi.NewWindow(kpi.PeriodMonth, ref), DefaultOptions())

	assert.Equal(t, 4, res.Records)
	assert.Equal(t, 11.0, res.Meals)
	assert.Equal(t, 25.0, res.EnteralShare)
	assert.Equal(t, 25.0, res.ParenteralShare)
	assert.Equal(t, 83.0, res.CaloricAdequacy)
	assert.Equal(t, 25.0, res.HighRiskRate)
	assert.Equal(t, "hypercaloric", res.ByDietType[0].Key)
	assert.Equal(t, RouteOral, res.ByRoute[0].Key)
}

func TestCaloricAdequacyClamped(t *testing.T) {
	over := []NutritionRecord{{PrescribedKcal: kpi.Float(1000), DeliveredKcal: kpi.Float(1500)}}
	assert.Equal(t, 100.0, CaloricAdequacy(over))
	assert.Equal(t, 0.0, CaloricAdequacy(nil))
}
