package kpi

import (
	"sort"
	"strings"
)

// UnknownKey labels records whose grouping field is blank.
const UnknownKey = "unspecified"

// DefaultTopN is the ranking limit used when a module does not override it.
const DefaultTopN = 5

// Ranked is one group in a distribution.
type Ranked struct {
	Key     string  `json:"key"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
}

// Counter accumulates values per key, remembering first-insertion order so that
// ranking ties keep input order.
type Counter struct {
	keys   []string
	values map[string]float64
}

// NewCounter constructs an empty Counter.
func NewCounter() *Counter {
	return &Counter{values: make(map[string]float64)}
}

// Add accumulates v under key.
func (c *Counter) Add(key string, v float64) {
	key = NormalizeKey(key)
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] += v
}

// Inc adds one to key.
func (c *Counter) Inc(key string) {
	c.Add(key, 1)
}

// Get returns the accumulated value for key, 0 when absent.
func (c *Counter) Get(key string) float64 {
	return c.values[NormalizeKey(key)]
}

// Keys returns keys in first-insertion order.
func (c *Counter) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len returns the number of distinct keys.
func (c *Counter) Len() int {
	return len(c.keys)
}

// Total sums every group.
func (c *Counter) Total() float64 {
	var total float64
	for _, key := range c.keys {
		total += c.values[key]
	}
	return total
}

// Ranked sorts groups by value descending (stable) and truncates to limit when limit > 0.
// Percent is computed against the total of all groups, before truncation.
func (c *Counter) Ranked(limit int) []Ranked {
	total := c.Total()
	out := make([]Ranked, 0, len(c.keys))
	for _, key := range c.keys {
		value := c.values[key]
		out = append(out, Ranked{Key: key, Value: value, Percent: PercentageN(value, total, 1)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value > out[j].Value
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// GroupAndRank groups records by key, sums value (or counts when value is nil) and ranks.
func GroupAndRank[T any](records []T, key func(T) string, value func(T) float64, limit int) []Ranked {
	counter := NewCounter()
	for _, record := range records {
		v := 1.0
		if value != nil {
			v = value(record)
		}
		counter.Add(key(record), v)
	}
	return counter.Ranked(limit)
}

// CountBy is GroupAndRank counting records.
func CountBy[T any](records []T, key func(T) string, limit int) []Ranked {
	return GroupAndRank(records, key, nil, limit)
}

// SumBy is GroupAndRank summing value.
func SumBy[T any](records []T, key func(T) string, value func(T) float64, limit int) []Ranked {
	return GroupAndRank(records, key, value, limit)
}

// UniqueCount counts distinct non-blank keys.
func UniqueCount[T any](records []T, key func(T) string) int {
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		k := strings.TrimSpace(key(record))
		if k == "" {
			continue
		}
		seen[k] = struct{}{}
	}
	return len(seen)
}

// CountIf counts records satisfying pred.
func CountIf[T any](records []T, pred func(T) bool) int {
	n := 0
	for _, record := range records {
		if pred(record) {
			n++
		}
	}
	return n
}

// NormalizeKey trims key and maps blanks to UnknownKey.
func NormalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return UnknownKey
	}
	return key
}

// Limit returns n when positive, otherwise DefaultTopN.
func Limit(n int) int {
	if n > 0 {
		return n
	}
	return DefaultTopN
}
