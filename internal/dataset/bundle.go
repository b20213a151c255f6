// Package dataset moves tenant record snapshots between Postgres, Redis and the KPI
// calculators. A snapshot is the raw input collection of one module; results are never
// stored.
package dataset

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hospitalops/kpi-engine/internal/admissions"
	"github.com/hospitalops/kpi-engine/internal/beds"
	"github.com/hospitalops/kpi-engine/internal/ccih"
	"github.com/hospitalops/kpi-engine/internal/icu"
	"github.com/hospitalops/kpi-engine/internal/imaging"
	"github.com/hospitalops/kpi-engine/internal/itops"
	"github.com/hospitalops/kpi-engine/internal/laboratory"
	"github.com/hospitalops/kpi-engine/internal/laundry"
	"github.com/hospitalops/kpi-engine/internal/linen"
	"github.com/hospitalops/kpi-engine/internal/nutrition"
	"github.com/hospitalops/kpi-engine/internal/pharmacy"
	"github.com/hospitalops/kpi-engine/internal/physio"
	"github.com/hospitalops/kpi-engine/internal/platform/httpx"
	"github.com/hospitalops/kpi-engine/internal/rbac"
	"github.com/hospitalops/kpi-engine/internal/records"
	"github.com/hospitalops/kpi-engine/internal/safety"
	"github.com/hospitalops/kpi-engine/internal/scheduling"
	"github.com/hospitalops/kpi-engine/internal/transfusion"
	"github.com/hospitalops/kpi-engine/internal/visits"
)

var (
	// ErrNotFound indicates no snapshot exists for the tenant and module.
	ErrNotFound = fmt.Errorf("dataset: snapshot %w", httpx.ErrNotFound)
	// ErrUnknownModule indicates a module outside the dashboard.
	ErrUnknownModule = fmt.Errorf("dataset: unknown module: %w", httpx.ErrNotFound)
	// ErrBadPayload indicates a payload that does not decode into the module's records.
	ErrBadPayload = fmt.Errorf("dataset: bad payload: %w", httpx.ErrValidation)
)

// Snapshot is one stored input collection.
type Snapshot struct {
	ID       string          `json:"id"`
	Tenant   string          `json:"tenant"`
	Module   string          `json:"module"`
	Version  int64           `json:"version"`
	StoredAt time.Time       `json:"stored_at"`
	Payload  json.RawMessage `json:"payload"`
}

// BedsPayload is the snapshot payload of the beds module.
type BedsPayload struct {
	Beds       []beds.BedRecord             `json:"beds"`
	Capacities []beds.RegisteredBedCapacity `json:"capacities"`
}

// CCIHPayload is the snapshot payload of the infection control module.
type CCIHPayload struct {
	Infections []ccih.InfectionRecord `json:"infections"`
	Isolations []ccih.IsolationRecord `json:"isolations"`
}

// Bundle holds every input collection of a tenant. Modules without a snapshot stay nil.
type Bundle struct {
	Visits       []visits.VisitRecord
	Appointments []scheduling.Appointment
	Admissions   []admissions.AdmissionRecord
	Beds         BedsPayload
	Laboratory   []laboratory.LabExam
	Imaging      []imaging.ImagingExam
	Transfusions []transfusion.TransfusionRecord
	Dispenses    []pharmacy.DispenseRecord
	CCIH         CCIHPayload
	Physio       []physio.PhysioSession
	ICU          []icu.ICUStay
	Nutrition    []nutrition.NutritionRecord
	Laundry      []laundry.LaundryRecord
	Linen        []linen.HygieneRecord
	Tickets      []itops.Ticket
	Safety       []safety.SafetyIncident
	Records      []records.RecordRequest
}

// target returns the Bundle field a module's payload decodes into.
func (b *Bundle) target(module string) (any, error) {
	switch module {
	case rbac.ModuleVisits:
		return &b.Visits, nil
	case rbac.ModuleScheduling:
		return &b.Appointments, nil
	case rbac.ModuleAdmissions:
		return &b.Admissions, nil
	case rbac.ModuleBeds:
		return &b.Beds, nil
	case rbac.ModuleLaboratory:
		return &b.Laboratory, nil
	case rbac.ModuleImaging:
		return &b.Imaging, nil
	case rbac.ModuleTransfusion:
		return &b.Transfusions, nil
	case rbac.ModulePharmacy:
		return &b.Dispenses, nil
	case rbac.ModuleCCIH:
		return &b.CCIH, nil
	case rbac.ModulePhysio:
		return &b.Physio, nil
	case rbac.ModuleICU:
		return &b.ICU, nil
	case rbac.ModuleNutrition:
		return &b.Nutrition, nil
	case rbac.ModuleLaundry:
		return &b.Laundry, nil
	case rbac.ModuleLinen:
		return &b.Linen, nil
	case rbac.ModuleIT:
		return &b.Tickets, nil
	case rbac.ModuleSafety:
		return &b.Safety, nil
	case rbac.ModuleRecords:
		return &b.Records, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
}

// Set decodes a module payload into the bundle.
func (b *Bundle) Set(module string, payload json.RawMessage) error {
	dest, err := b.target(module)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadPayload, module, err)
	}
	return nil
}

// Payload encodes the bundle's collection for module.
func (b *Bundle) Payload(module string) (json.RawMessage, error) {
	src, err := b.target(module)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("dataset: encode %s: %w", module, err)
	}
	return raw, nil
}

// Count returns the number of input records held for module.
func (b *Bundle) Count(module string) int {
	switch module {
	case rbac.ModuleVisits:
		return len(b.Visits)
	case rbac.ModuleScheduling:
		return len(b.Appointments)
	case rbac.ModuleAdmissions:
		return len(b.Admissions)
	case rbac.ModuleBeds:
		return len(b.Beds.Beds)
	case rbac.ModuleLaboratory:
		return len(b.Laboratory)
	case rbac.ModuleImaging:
		return len(b.Imaging)
	case rbac.ModuleTransfusion:
		return len(b.Transfusions)
	case rbac.ModulePharmacy:
		return len(b.Dispenses)
	case rbac.ModuleCCIH:
		return len(b.CCIH.Infections) + len(b.CCIH.Isolations)
	case rbac.ModulePhysio:
		return len(b.Physio)
	case rbac.ModuleICU:
		return len(b.ICU)
	case rbac.ModuleNutrition:
		return len(b.Nutrition)
	case rbac.ModuleLaundry:
		return len(b.Laundry)
	case rbac.ModuleLinen:
		return len(b.Linen)
	case rbac.ModuleIT:
		return len(b.Tickets)
	case rbac.ModuleSafety:
		return len(b.Safety)
	case rbac.ModuleRecords:
		return len(b.Records)
	default:
		return 0
	}
}

// ValidateModule reports ErrUnknownModule for names outside the dashboard.
func ValidateModule(module string) error {
	if !rbac.IsKPIModule(module) {
		return fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
	return nil
}
