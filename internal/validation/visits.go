package validation

import "github.com/hospitalops/kpi-engine/internal/visits"

// Rejection is a record that failed validation, with its position in the input.
type Rejection struct {
	Index  int                `json:"index"`
	ID     string             `json:"id,omitempty"`
	Errors []FieldError       `json:"errors"`
	Record visits.VisitRecord `json:"-"`
}

// ValidateVisit checks required fields, the YYYY-MM-DD date, the HH:MM time and
// non-negative optional numerics.
func ValidateVisit(v visits.VisitRecord) error {
	return std.Struct(v)
}

// PartitionVisits splits records into those accepted by ValidateVisit and rejections.
// Input order is preserved on both sides.
func PartitionVisits(records []visits.VisitRecord) ([]visits.VisitRecord, []Rejection) {
	valid := make([]visits.VisitRecord, 0, len(records))
	var rejected []Rejection
	for i, v := range records {
		err := ValidateVisit(v)
		if err == nil {
			valid = append(valid, v)
			continue
		}
		rej := Rejection{Index: i, ID: v.ID, Record: v}
		if ve, ok := err.(*Error); ok {
			rej.Errors = ve.Fields
		}
		rejected = append(rejected, rej)
	}
	return valid, rejected
}
