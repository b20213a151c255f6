package dashboard

import (
	"github.com/hospitalops/kpi-engine/internal/admissions"
	"github.com/hospitalops/kpi-engine/internal/beds"
	"github.com/hospitalops/kpi-engine/internal/ccih"
	"github.com/hospitalops/kpi-engine/internal/exams"
	"github.com/hospitalops/kpi-engine/internal/icu"
	"github.com/hospitalops/kpi-engine/internal/itops"
	"github.com/hospitalops/kpi-engine/internal/laundry"
	"github.com/hospitalops/kpi-engine/internal/nutrition"
	"github.com/hospitalops/kpi-engine/internal/pharmacy"
	"github.com/hospitalops/kpi-engine/internal/physio"
	"github.com/hospitalops/kpi-engine/internal/records"
	"github.com/hospitalops/kpi-engine/internal/safety"
	"github.com/hospitalops/kpi-engine/internal/scheduling"
	"github.com/hospitalops/kpi-engine/internal/transfusion"
	"github.com/hospitalops/kpi-engine/internal/visits"
)

// Options carries the tunables of every calculator. Laboratory and imaging share Exams;
// laundry and linen share Laundry.
type Options struct {
	Visits      visits.Options      `json:"visits"`
	Scheduling  scheduling.Options  `json:"scheduling"`
	Admissions  admissions.Options  `json:"admissions"`
	Beds        beds.Options        `json:"beds"`
	Exams       exams.Options       `json:"exams"`
	Transfusion transfusion.Options `json:"transfusion"`
	Pharmacy    pharmacy.Options    `json:"pharmacy"`
	CCIH        ccih.Options        `json:"ccih"`
	Physio      physio.Options      `json:"physio"`
	ICU         icu.Options         `json:"icu"`
	Nutrition   nutrition.Options   `json:"nutrition"`
	Laundry     laundry.Options     `json:"laundry"`
	ITOps       itops.Options       `json:"itops"`
	Safety      safety.Options      `json:"safety"`
	Records     records.Options     `json:"records"`
}

// DefaultOptions returns every module's documented defaults.
func DefaultOptions() Options {
	return Options{
		Visits:      visits.DefaultOptions(),
		Scheduling:  scheduling.DefaultOptions(),
		Admissions:  admissions.DefaultOptions(),
		Beds:        beds.DefaultOptions(),
		Exams:       exams.DefaultOptions(),
		Transfusion: transfusion.DefaultOptions(),
		Pharmacy:    pharmacy.DefaultOptions(),
		CCIH:        ccih.DefaultOptions(),
		Physio:      physio.DefaultOptions(),
		ICU:         icu.DefaultOptions(),
		Nutrition:   nutrition.DefaultOptions(),
		Laundry:     laundry.DefaultOptions(),
		ITOps:       itops.DefaultOptions(),
		Safety:      safety.DefaultOptions(),
		Records:     records.DefaultOptions(),
	}
}

// WithTopN overrides the ranking limit of every module. Non-positive values are ignored.
func (o Options) WithTopN(n int) Options {
	if n <= 0 {
		return o
	}
	o.Visits.TopN = n
	o.Scheduling.TopN = n
	o.Admissions.TopN = n
	o.Beds.TopN = n
	o.Exams.TopN = n
	o.Transfusion.TopN = n
	o.Pharmacy.TopN = n
	o.CCIH.TopN = n
	o.Physio.TopN = n
	o.ICU.TopN = n
	o.Nutrition.TopN = n
	o.Laundry.TopN = n
	o.ITOps.TopN = n
	o.Safety.TopN = n
	o.Records.TopN = n
	return o
}
