// Package icu computes intensive care unit KPIs.
package icu

import (
	"time"

	"github.com/hospitalops/kpi-engine/internal/kpi"
)

// DefaultBeds is the ICU bed count assumed when none is configured.
const DefaultBeds = 10

// ICUStay is one intensive care stay.
type ICUStay struct {
	ID                string   `json:"id"`
	PatientID         string   `json:"patient_id"`
	Unit              string   `json:"unit"`
	AdmitDate         string   `json:"admit_date"`
	DischargeDate     string   `json:"discharge_date,omitempty"`
	Died              bool     `json:"died"`
	Ventilated        bool     `json:"ventilated"`
	VentilatorDays    *float64 `json:"ventilator_days,omitempty"`
	SeverityScore     *float64 `json:"severity_score,omitempty"`
	LengthOfStay      *float64 `json:"length_of_stay_days,omitempty"`
	Readmitted48Hours bool     `json:"readmitted_48h"`
}

// Options tunes the calculation.
type Options struct {
	TopN int `json:"top_n"`
	Beds int `json:"beds"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{TopN: kpi.DefaultTopN, Beds: DefaultBeds}
}

// Result is the ICU KPI card.
type Result struct {
	Admissions            int             `json:"admissions"`
	Discharges            int             `json:"discharges"`
	Deaths                int             `json:"deaths"`
	MortalityRate         float64         `json:"mortality_rate"`
	Occupied              int             `json:"occupied"`
	Beds                  int             `json:"beds"`
	OccupancyRate         float64         `json:"occupancy_rate"`
	VentilationRate       float64         `json:"ventilation_rate"`
	AverageVentilatorDays float64         `json:"average_ventilator_days"`
	AverageLengthOfStay   float64         `json:"average_length_of_stay"`
	ReadmissionRate       float64         `json:"readmission_rate"`
	AverageSeverityScore  float64         `json:"average_severity_score"`
	ByUnit                []kpi.Ranked    `json:"by_unit"`
	Seasonality           kpi.Seasonality `json:"seasonality"`
}

func admitDate(s ICUStay) string     { return s.AdmitDate }
func dischargeDate(s ICUStay) string { return s.DischargeDate }

// Calculate builds the ICU KPI card for the window.
func Calculate(records []ICUStay, w kpi.Window, opts Options) Result {
	beds := opts.Beds
	if beds <= 0 {
		beds = DefaultBeds
	}
	admitted := kpi.InWindow(records, admitDate, w)
	discharged := kpi.InWindow(records, dischargeDate, w)
	total := float64(len(admitted))

	deaths := kpi.CountIf(discharged, func(s ICUStay) bool { return s.Died })
	ventilated := kpi.CountIf(admitted, func(s ICUStay) bool { return s.Ventilated })
	readmitted := kpi.CountIf(admitted, func(s ICUStay) bool { return s.Readmitted48Hours })
	occupied := Census(records, w.Ref)

	return Result{
		Admissions:            len(admitted),
		Discharges:            len(discharged),
		Deaths:                deaths,
		MortalityRate:         kpi.Percentage(float64(deaths), float64(len(discharged))),
		Occupied:              occupied,
		Beds:                  beds,
		OccupancyRate:         kpi.ClampRate(kpi.Percentage(float64(occupied), float64(beds))),
		VentilationRate:       kpi.Percentage(float64(ventilated), total),
		AverageVentilatorDays: kpi.Round1(kpi.Average(kpi.DefinedValues(admitted, func(s ICUStay) *float64 { return s.VentilatorDays }))),
		AverageLengthOfStay:   averageStay(discharged, w.Location()),
		ReadmissionRate:       kpi.Percentage(float64(readmitted), total),
		AverageSeverityScore:  kpi.Round1(kpi.Average(kpi.DefinedValues(admitted, func(s ICUStay) *float64 { return s.SeverityScore }))),
		ByUnit:                kpi.CountBy(admitted, func(s ICUStay) string { return s.Unit }, kpi.Limit(opts.TopN)),
		Seasonality:           kpi.SeasonalityOf(records, admitDate, w.Ref),
	}
}

// Census counts stays open at ref: admitted on or before ref's day and not discharged by it.
func Census(records []ICUStay, ref time.Time) int {
	loc := ref.Location()
	n := 0
	for _, s := range records {
		in, ok := kpi.ParseDate(s.AdmitDate, loc)
		if !ok || kpi.DaysBetween(in, ref) < 0 {
			continue
		}
		if out, ok := kpi.ParseDate(s.DischargeDate, loc); ok && kpi.DaysBetween(out, ref) >= 0 {
			continue
		}
		n++
	}
	return n
}

func averageStay(records []ICUStay, loc *time.Location) float64 {
	stays := make([]float64, 0, len(records))
	for _, s := range records {
		if kpi.Defined(s.LengthOfStay) {
			stays = append(stays, *s.LengthOfStay)
			continue
		}
		in, ok := kpi.ParseDate(s.AdmitDate, loc)
		if !ok {
			continue
		}
		out, ok := kpi.ParseDate(s.DischargeDate, loc)
		if !ok || out.Before(in) {
			continue
		}
		days := kpi.DaysBetween(in, out)
		if days < 1 {
			days = 1
		}
		stays = append(stays, float64(days))
	}
	return kpi.Round1(kpi.Average(stays))
}
