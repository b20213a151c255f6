// Package visits computes KPIs for clinical encounters (atendimentos).
package visits

import (
	"strconv"
	"strings"

	"github.com/hospitalops/kpi-engine/internal/kpi"
)

// Visit kinds.
const (
	KindConsultation = "consultation"
	KindReturn       = "return"
	KindEmergency    = "emergency"
	KindProcedure    = "procedure"
	KindExam         = "exam"
)

// Visit statuses.
const (
	StatusWaiting    = "waiting"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCanceled   = "canceled"
)

// dailyTrendDays is the length of the daily series attached to every result.
const dailyTrendDays = 7

// VisitRecord is one clinical encounter.
type VisitRecord struct {
	ID            string   `json:"id" validate:"required"`
	PatientID     string   `json:"patient_id" validate:"required"`
	Date          string   `json:"date" validate:"required,isodate"`
	Time          string   `json:"time" validate:"required,hhmm"`
	Specialty     string   `json:"specialty" validate:"required"`
	Professional  string   `json:"professional" validate:"required"`
	InsurancePlan string   `json:"insurance_plan"`
	Kind          string   `json:"kind" validate:"required"`
	Status        string   `json:"status" validate:"required"`
	WaitMinutes   *float64 `json:"wait_minutes,omitempty" validate:"omitempty,gte=0"`
	Amount        *float64 `json:"amount,omitempty" validate:"omitempty,gte=0"`
}

// Options tunes the calculation.
type Options struct {
	TopN int `json:"top_n"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{TopN: kpi.DefaultTopN}
}

// HourBucket counts visits starting in one hour of the day.
type HourBucket struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// Result is the visits KPI card.
type Result struct {
	Total              int             `json:"total"`
	UniquePatients     int             `json:"unique_patients"`
	Completed          int             `json:"completed"`
	Canceled           int             `json:"canceled"`
	CompletionRate     float64         `json:"completion_rate"`
	CancellationRate   float64         `json:"cancellation_rate"`
	ReturnRate         float64         `json:"return_rate"`
	AverageWaitMinutes float64         `json:"average_wait_minutes"`
	Revenue            float64         `json:"revenue"`
	AverageTicket      float64         `json:"average_ticket"`
	ByKind             []kpi.Ranked    `json:"by_kind"`
	ByStatus           []kpi.Ranked    `json:"by_status"`
	TopSpecialties     []kpi.Ranked    `json:"top_specialties"`
	TopProfessionals   []kpi.Ranked    `json:"top_professionals"`
	ByInsurance        []kpi.Ranked    `json:"by_insurance"`
	ByHour             []HourBucket    `json:"by_hour"`
	PeakHour           int             `json:"peak_hour"`
	Daily              []kpi.DayPoint  `json:"daily"`
	Seasonality        kpi.Seasonality `json:"seasonality"`
}

func visitDate(v VisitRecord) string { return v.Date }

// Calculate builds the visits KPI card for the window.
func Calculate(records []VisitRecord, w kpi.Window, opts Options) Result {
	limit := kpi.Limit(opts.TopN)
	inWindow := kpi.InWindow(records, visitDate, w)
	total := float64(len(inWindow))

	completed := kpi.CountIf(inWindow, func(v VisitRecord) bool { return v.Status == StatusCompleted })
	canceled := kpi.CountIf(inWindow, func(v VisitRecord) bool { return v.Status == StatusCanceled })
	returns := kpi.CountIf(inWindow, func(v VisitRecord) bool { return v.Kind == KindReturn })

	waits := kpi.DefinedValues(inWindow, func(v VisitRecord) *float64 { return v.WaitMinutes })
	amounts := kpi.DefinedValues(inWindow, func(v VisitRecord) *float64 { return v.Amount })

	byHour, peak := hourDistribution(inWindow)
	allDates := kpi.Dates(records, visitDate, w.Location())

	return Result{
		Total:              len(inWindow),
		UniquePatients:     kpi.UniqueCount(inWindow, func(v VisitRecord) string { return v.PatientID }),
		Completed:          completed,
		Canceled:           canceled,
		CompletionRate:     kpi.Percentage(float64(completed), total),
		CancellationRate:   kpi.Percentage(float64(canceled), total),
		ReturnRate:         kpi.Percentage(float64(returns), total),
		AverageWaitMinutes: kpi.Round(kpi.Average(waits), 0),
		Revenue:            kpi.Round2(kpi.Sum(amounts)),
		AverageTicket:      kpi.Round2(kpi.Average(amounts)),
		ByKind:             kpi.CountBy(inWindow, func(v VisitRecord) string { return v.Kind }, 0),
		ByStatus:           kpi.CountBy(inWindow, func(v VisitRecord) string { return v.Status }, 0),
		TopSpecialties:     kpi.CountBy(inWindow, func(v VisitRecord) string { return v.Specialty }, limit),
		TopProfessionals:   kpi.CountBy(inWindow, func(v VisitRecord) string { return v.Professional }, limit),
		ByInsurance:        kpi.CountBy(inWindow, func(v VisitRecord) string { return v.InsurancePlan }, 0),
		ByHour:             byHour,
		PeakHour:           peak,
		Daily:              kpi.DailySeries(allDates, w.Ref, dailyTrendDays),
		Seasonality:        kpi.EstimateSeasonality(allDates, w.Ref),
	}
}

// AverageWaitMinutes is the integer mean of the waits that were recorded.
func AverageWaitMinutes(records []VisitRecord) float64 {
	waits := kpi.DefinedValues(records, func(v VisitRecord) *float64 { return v.WaitMinutes })
	return kpi.Round(kpi.Average(waits), 0)
}

// hourDistribution buckets visits by the hour of their HH:MM time. Unreadable times are
// left out. The peak is the earliest busiest hour, -1 when nothing was bucketed.
func hourDistribution(records []VisitRecord) ([]HourBucket, int) {
	buckets := make([]HourBucket, 24)
	for h := range buckets {
		buckets[h].Hour = h
	}
	for _, v := range records {
		if h, ok := parseHour(v.Time); ok {
			buckets[h].Count++
		}
	}
	peak, best := -1, 0
	for _, b := range buckets {
		if b.Count > best {
			peak, best = b.Hour, b.Count
		}
	}
	return buckets, peak
}

func parseHour(value string) (int, bool) {
	head, _, found := strings.Cut(strings.TrimSpace(value), ":")
	if !found {
		return 0, false
	}
	h, err := strconv.Atoi(head)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	return h, true
}
