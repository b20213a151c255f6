// Package beds computes bed occupancy KPIs from a point-in-time bed snapshot.
package beds

import (
	"sort"

	"github.com/hospitalops/kpi-engine/internal/kpi"
)

// Bed statuses.
const (
	StatusOccupied    = "occupied"
	StatusAvailable   = "available"
	StatusMaintenance = "maintenance"
	StatusReserved    = "reserved"
)

// BedRecord is the current state of one bed.
type BedRecord struct {
	ID         string `json:"id"`
	BedNumber  string `json:"bed_number"`
	CostCenter string `json:"cost_center"`
	BedType    string `json:"bed_type"`
	Status     string `json:"status"`
	PatientID  string `json:"patient_id,omitempty"`
}

// RegisteredBedCapacity is the licensed bed count of a cost center.
type RegisteredBedCapacity struct {
	CostCenter string `json:"cost_center"`
	TotalBeds  int    `json:"total_beds"`
}

// Options tunes the calculation.
type Options struct {
	TopN int `json:"top_n"`

	// DefaultCapacity replaces the bed-record count when no capacity is registered.
	DefaultCapacity int `json:"default_capacity"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{TopN: kpi.DefaultTopN}
}

// CostCenterOccupancy is the census of one cost center against its capacity.
type CostCenterOccupancy struct {
	CostCenter   string  `json:"cost_center"`
	Capacity     int     `json:"capacity"`
	Census       int     `json:"census"`
	Rate         float64 `json:"rate"`
	OverCapacity bool    `json:"over_capacity"`
}

// Result is the bed occupancy KPI card.
type Result struct {
	TotalBeds       int                   `json:"total_beds"`
	Occupied        int                   `json:"occupied"`
	Available       int                   `json:"available"`
	Maintenance     int                   `json:"maintenance"`
	Reserved        int                   `json:"reserved"`
	Census          int                   `json:"census"`
	Capacity        int                   `json:"capacity"`
	OccupancyRate   float64               `json:"occupancy_rate"`
	OperationalRate float64               `json:"operational_rate"`
	BlockedRate     float64               `json:"blocked_rate"`
	ByCostCenter    []CostCenterOccupancy `json:"by_cost_center"`
	ByBedType       []kpi.Ranked          `json:"by_bed_type"`
	ByStatus        []kpi.Ranked          `json:"by_status"`
}

// IsCensus reports whether a bed counts against capacity.
func IsCensus(status string) bool {
	return status == StatusOccupied || status == StatusReserved
}

// OccupancyRate returns round(census/capacity*100) clamped to [0, 100].
func OccupancyRate(census, capacity int) float64 {
	return kpi.ClampRate(kpi.Percentage(float64(census), float64(capacity)))
}

// Calculate builds the occupancy card. Beds are a snapshot so the window is not applied.
func Calculate(records []BedRecord, capacities []RegisteredBedCapacity, _ kpi.Window, opts Options) Result {
	statuses := kpi.NewCounter()
	for _, b := range records {
		statuses.Inc(b.Status)
	}
	count := func(status string) int { return int(statuses.Get(status)) }

	occupied, reserved := count(StatusOccupied), count(StatusReserved)
	available, maintenance := count(StatusAvailable), count(StatusMaintenance)
	census := occupied + reserved
	capacity := totalCapacity(capacities, len(records), opts.DefaultCapacity)

	return Result{
		TotalBeds:       len(records),
		Occupied:        occupied,
		Available:       available,
		Maintenance:     maintenance,
		Reserved:        reserved,
		Census:          census,
		Capacity:        capacity,
		OccupancyRate:   OccupancyRate(census, capacity),
		OperationalRate: kpi.Percentage(float64(occupied), float64(occupied+available)),
		BlockedRate:     kpi.Percentage(float64(maintenance), float64(len(records))),
		ByCostCenter:    ByCostCenter(records, capacities),
		ByBedType:       kpi.CountBy(records, func(b BedRecord) string { return b.BedType }, 0),
		ByStatus:        statuses.Ranked(0),
	}
}

// ByCostCenter reports census against registered capacity per cost center, highest rate
// first. Cost centers without a registered capacity use their bed-record count.
func ByCostCenter(records []BedRecord, capacities []RegisteredBedCapacity) []CostCenterOccupancy {
	beds := kpi.NewCounter()
	census := kpi.NewCounter()
	for _, b := range records {
		beds.Inc(b.CostCenter)
		if IsCensus(b.Status) {
			census.Inc(b.CostCenter)
		}
	}
	registered := kpi.NewCounter()
	for _, c := range capacities {
		if c.TotalBeds > 0 {
			registered.Add(c.CostCenter, float64(c.TotalBeds))
		}
	}
	keys := beds.Keys()
	for _, key := range registered.Keys() {
		if beds.Get(key) == 0 {
			keys = append(keys, key)
		}
	}

	out := make([]CostCenterOccupancy, 0, len(keys))
	for _, key := range keys {
		capacity := int(registered.Get(key))
		if capacity == 0 {
			capacity = int(beds.Get(key))
		}
		n := int(census.Get(key))
		out = append(out, CostCenterOccupancy{
			CostCenter:   key,
			Capacity:     capacity,
			Census:       n,
			Rate:         OccupancyRate(n, capacity),
			OverCapacity: n > capacity,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rate > out[j].Rate })
	return out
}

func totalCapacity(capacities []RegisteredBedCapacity, beds, fallback int) int {
	total := 0
	for _, c := range capacities {
		if c.TotalBeds > 0 {
			total += c.TotalBeds
		}
	}
	if total > 0 {
		return total
	}
	if fallback > 0 {
		return fallback
	}
	return beds
}
