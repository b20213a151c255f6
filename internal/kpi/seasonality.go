package kpi

import "time"

// BaselineMonths is the trailing window used as the seasonality baseline.
const BaselineMonths = 12

// trendThreshold separates "stable" from a directional trend, in percentage points.
const trendThreshold = 10

// Trend directions.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// Seasonality compares the current month against the trailing monthly mean.
type Seasonality struct {
	CurrentCount int     `json:"current_count"`
	BaselineMean float64 `json:"baseline_mean"`
	DeviationPct float64 `json:"deviation_pct"`
	Trend        string  `json:"trend"`
}

// MonthPoint is a monthly count.
type MonthPoint struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// DayPoint is a daily count.
type DayPoint struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// SeasonalityDeviation returns round2((current-mean)/mean*100), 0 when mean is 0.
func SeasonalityDeviation(current, mean float64) float64 {
	if mean <= 0 {
		return 0
	}
	return Round2((current - mean) / mean * 100)
}

// EstimateSeasonality counts dates in ref's month and compares them with the mean of the
// 12 months ending at ref's month.
func EstimateSeasonality(dates []time.Time, ref time.Time) Seasonality {
	current := 0
	baseline := 0
	for _, t := range dates {
		if IsInMonth(t, ref) {
			current++
		}
		if IsInTrailingMonths(t, ref, BaselineMonths) {
			baseline++
		}
	}
	if baseline == 0 {
		return Seasonality{CurrentCount: current, Trend: TrendStable}
	}
	mean := float64(baseline) / BaselineMonths
	deviation := SeasonalityDeviation(float64(current), mean)
	return Seasonality{
		CurrentCount: current,
		BaselineMean: Round2(mean),
		DeviationPct: deviation,
		Trend:        classifyTrend(deviation),
	}
}

// SeasonalityOf parses record dates and estimates seasonality against ref.
func SeasonalityOf[T any](records []T, date func(T) string, ref time.Time) Seasonality {
	return EstimateSeasonality(Dates(records, date, ref.Location()), ref)
}

// MonthlySeries returns zero-filled counts for the months ending at ref, oldest first.
func MonthlySeries(dates []time.Time, ref time.Time, months int) []MonthPoint {
	if months <= 0 {
		return nil
	}
	year, month := TrailingStart(ref, months)
	start := time.Date(year, month, 1, 0, 0, 0, 0, ref.Location())
	points := make([]MonthPoint, months)
	index := make(map[string]int, months)
	for i := 0; i < months; i++ {
		key := MonthKey(start.AddDate(0, i, 0))
		points[i] = MonthPoint{Month: key}
		index[key] = i
	}
	for _, t := range dates {
		if !IsInTrailingMonths(t, ref, months) {
			continue
		}
		if i, ok := index[MonthKey(t.In(ref.Location()))]; ok {
			points[i].Count++
		}
	}
	return points
}

// DailySeries returns zero-filled counts for the days ending at ref, oldest first.
func DailySeries(dates []time.Time, ref time.Time, days int) []DayPoint {
	if days <= 0 {
		return nil
	}
	y, m, d := ref.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, ref.Location()).AddDate(0, 0, -(days - 1))
	points := make([]DayPoint, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		key := DayKey(start.AddDate(0, 0, i))
		points[i] = DayPoint{Day: key}
		index[key] = i
	}
	for _, t := range dates {
		if !IsInTrailingDays(t, ref, days) {
			continue
		}
		if i, ok := index[DayKey(t.In(ref.Location()))]; ok {
			points[i].Count++
		}
	}
	return points
}

// MonthOverMonth compares the count in ref's month with the previous month.
func MonthOverMonth(dates []time.Time, ref time.Time) float64 {
	prevRef := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location()).AddDate(0, -1, 0)
	var cur, prev float64
	for _, t := range dates {
		switch {
		case IsInMonth(t, ref):
			cur++
		case IsInMonth(t, prevRef):
			prev++
		}
	}
	return ChangePct(prev, cur)
}

func classifyTrend(deviation float64) string {
	switch {
	case deviation > trendThreshold:
		return TrendUp
	case deviation < -trendThreshold:
		return TrendDown
	default:
		return TrendStable
	}
}
