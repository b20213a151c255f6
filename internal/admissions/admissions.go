// Package admissions computes inpatient admission KPIs (internação).
package admissions

import (
	"time"

	"github.com/hospitalops/kpi-engine/internal/kpi"
)

// DefaultReadmissionDays is the readmission horizon used when Options leaves it unset.
const DefaultReadmissionDays = 30

// AdmissionRecord is one inpatient stay.
type AdmissionRecord struct {
	ID             string   `json:"id"`
	PatientID      string   `json:"patient_id"`
	AdmitDate      string   `json:"admit_date"`
	DischargeDate  string   `json:"discharge_date,omitempty"`
	CostCenter     string   `json:"cost_center"`
	Doctor         string   `json:"doctor"`
	Specialty      string   `json:"specialty"`
	RiskClass      string   `json:"risk_class,omitempty"`
	OriginFacility string   `json:"origin_facility"`
	LinkedToER     bool     `json:"linked_to_er"`
	Died           bool     `json:"died"`
	LengthOfStay   *float64 `json:"length_of_stay_days,omitempty"`
	InsurancePlan  string   `json:"insurance_plan,omitempty"`
}

// Options tunes the calculation.
type Options struct {
	TopN            int `json:"top_n"`
	ReadmissionDays int `json:"readmission_days"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{TopN: kpi.DefaultTopN, ReadmissionDays: DefaultReadmissionDays}
}

// Result is the admissions KPI card.
type Result struct {
	Admissions          int             `json:"admissions"`
	Discharges          int             `json:"discharges"`
	Deaths              int             `json:"deaths"`
	MortalityRate       float64         `json:"mortality_rate"`
	ERLinkedRate        float64         `json:"er_linked_rate"`
	AverageLengthOfStay float64         `json:"average_length_of_stay"`
	Inpatients          int             `json:"inpatients"`
	Readmissions        int             `json:"readmissions"`
	ReadmissionRate     float64         `json:"readmission_rate"`
	ByCostCenter        []kpi.Ranked    `json:"by_cost_center"`
	TopSpecialties      []kpi.Ranked    `json:"top_specialties"`
	TopDoctors          []kpi.Ranked    `json:"top_doctors"`
	ByRiskClass         []kpi.Ranked    `json:"by_risk_class"`
	ByOrigin            []kpi.Ranked    `json:"by_origin"`
	ByInsurance         []kpi.Ranked    `json:"by_insurance"`
	Seasonality         kpi.Seasonality `json:"seasonality"`
}

func admitDate(a AdmissionRecord) string     { return a.AdmitDate }
func dischargeDate(a AdmissionRecord) string { return a.DischargeDate }

// Calculate builds the admissions KPI card for the window.
func Calculate(records []AdmissionRecord, w kpi.Window, opts Options) Result {
	limit := kpi.Limit(opts.TopN)
	admitted := kpi.InWindow(records, admitDate, w)
	discharged := kpi.InWindow(records, dischargeDate, w)
	total := float64(len(admitted))

	deaths := kpi.CountIf(admitted, func(a AdmissionRecord) bool { return a.Died })
	erLinked := kpi.CountIf(admitted, func(a AdmissionRecord) bool { return a.LinkedToER })
	readmissions := countReadmissions(records, admitted, w.Location(), opts.ReadmissionDays)

	return Result{
		Admissions:          len(admitted),
		Discharges:          len(discharged),
		Deaths:              deaths,
		MortalityRate:       kpi.Percentage(float64(deaths), total),
		ERLinkedRate:        kpi.Percentage(float64(erLinked), total),
		AverageLengthOfStay: AverageLengthOfStay(discharged, w.Location()),
		Inpatients:          Census(records, w.Ref),
		Readmissions:        readmissions,
		ReadmissionRate:     kpi.Percentage(float64(readmissions), total),
		ByCostCenter:        kpi.CountBy(admitted, func(a AdmissionRecord) string { return a.CostCenter }, 0),
		TopSpecialties:      kpi.CountBy(admitted, func(a AdmissionRecord) string { return a.Specialty }, limit),
		TopDoctors:          kpi.CountBy(admitted, func(a AdmissionRecord) string { return a.Doctor }, limit),
		ByRiskClass:         kpi.CountBy(admitted, func(a AdmissionRecord) string { return a.RiskClass }, 0),
		ByOrigin:            kpi.CountBy(admitted, func(a AdmissionRecord) string { return a.OriginFacility }, limit),
		ByInsurance:         kpi.CountBy(admitted, func(a AdmissionRecord) string { return a.InsurancePlan }, 0),
		Seasonality:         kpi.SeasonalityOf(records, admitDate, w.Ref),
	}
}

// LengthOfStay returns the stay in days and whether it could be determined. An explicit
// positive value wins; otherwise the admit and discharge dates are used with a floor of
// one day. Stays without a discharge are undetermined.
func LengthOfStay(a AdmissionRecord, loc *time.Location) (float64, bool) {
	if kpi.Defined(a.LengthOfStay) {
		return *a.LengthOfStay, true
	}
	in, ok := kpi.ParseDate(a.AdmitDate, loc)
	if !ok {
		return 0, false
	}
	out, ok := kpi.ParseDate(a.DischargeDate, loc)
	if !ok || out.Before(in) {
		return 0, false
	}
	days := kpi.DaysBetween(in, out)
	if days < 1 {
		days = 1
	}
	return float64(days), true
}

// AverageLengthOfStay is the one-decimal mean stay over the records whose stay is known.
func AverageLengthOfStay(records []AdmissionRecord, loc *time.Location) float64 {
	stays := make([]float64, 0, len(records))
	for _, a := range records {
		if los, ok := LengthOfStay(a, loc); ok {
			stays = append(stays, los)
		}
	}
	return kpi.Round1(kpi.Average(stays))
}

// Census counts patients admitted on or before ref's day and not yet discharged by it.
func Census(records []AdmissionRecord, ref time.Time) int {
	loc := ref.Location()
	n := 0
	for _, a := range records {
		in, ok := kpi.ParseDate(a.AdmitDate, loc)
		if !ok || kpi.DaysBetween(in, ref) < 0 {
			continue
		}
		if out, ok := kpi.ParseDate(a.DischargeDate, loc); ok && kpi.DaysBetween(out, ref) >= 0 {
			continue
		}
		n++
	}
	return n
}

type stay struct {
	in, out time.Time
	hasOut  bool
}

// countReadmissions counts window admissions that began within horizon days of an
// earlier discharge of the same patient.
func countReadmissions(all, admitted []AdmissionRecord, loc *time.Location, horizon int) int {
	if horizon <= 0 {
		horizon = DefaultReadmissionDays
	}
	byPatient := make(map[string][]stay)
	for _, a := range all {
		if a.PatientID == "" {
			continue
		}
		in, ok := kpi.ParseDate(a.AdmitDate, loc)
		if !ok {
			continue
		}
		out, hasOut := kpi.ParseDate(a.DischargeDate, loc)
		byPatient[a.PatientID] = append(byPatient[a.PatientID], stay{in: in, out: out, hasOut: hasOut})
	}
	n := 0
	for _, a := range admitted {
		in, ok := kpi.ParseDate(a.AdmitDate, loc)
		if !ok {
			continue
		}
		for _, prior := range byPatient[a.PatientID] {
			if !prior.hasOut || !prior.in.Before(in) {
				continue
			}
			if gap := kpi.DaysBetween(prior.out, in); gap >= 0 && gap <= horizon {
				n++
				break
			}
		}
	}
	return n
}
