// Package dashboard runs the KPI calculators over tenant datasets.
package dashboard

import (
	"fmt"

	"github.com/hospitalops/kpi-engine/internal/admissions"
	"github.com/hospitalops/kpi-engine/internal/beds"
	"github.com/hospitalops/kpi-engine/internal/ccih"
	"github.com/hospitalops/kpi-engine/internal/dataset"
	"github.com/hospitalops/kpi-engine/internal/icu"
	"github.com/hospitalops/kpi-engine/internal/imaging"
	"github.com/hospitalops/kpi-engine/internal/itops"
	"github.com/hospitalops/kpi-engine/internal/kpi"
	"github.com/hospitalops/kpi-engine/internal/laboratory"
	"github.com/hospitalops/kpi-engine/internal/laundry"
	"github.com/hospitalops/kpi-engine/internal/linen"
	"github.com/hospitalops/kpi-engine/internal/nutrition"
	"github.com/hospitalops/kpi-engine/internal/pharmacy"
	"github.com/hospitalops/kpi-engine/internal/physio"
	"github.com/hospitalops/kpi-engine/internal/rbac"
	"github.com/hospitalops/kpi-engine/internal/records"
	"github.com/hospitalops/kpi-engine/internal/safety"
	"github.com/hospitalops/kpi-engine/internal/scheduling"
	"github.com/hospitalops/kpi-engine/internal/transfusion"
	"github.com/hospitalops/kpi-engine/internal/visits"
)

// Compute runs the calculator of module over the bundle. The only error is an unknown
// module; calculators themselves cannot fail.
func Compute(module string, b *dataset.Bundle, w kpi.Window, opts Options) (any, error) {
	if b == nil {
		b = &dataset.Bundle{}
	}
	switch module {
	case rbac.ModuleVisits:
		return visits.Calculate(b.Visits, w, opts.Visits), nil
	case rbac.ModuleScheduling:
		return scheduling.Calculate(b.Appointments, w, opts.Scheduling), nil
	case rbac.ModuleAdmissions:
		return admissions.Calculate(b.Admissions, w, opts.Admissions), nil
	case rbac.ModuleBeds:
		return beds.Calculate(b.Beds.Beds, b.Beds.Capacities, w, opts.Beds), nil
	case rbac.ModuleLaboratory:
		return laboratory.Calculate(b.Laboratory, w, opts.Exams), nil
	case rbac.ModuleImaging:
		return imaging.Calculate(b.Imaging, w, opts.Exams), nil
	case rbac.ModuleTransfusion:
		return transfusion.Calculate(b.Transfusions, w, opts.Transfusion), nil
	case rbac.ModulePharmacy:
		return pharmacy.Calculate(b.Dispenses, w, opts.Pharmacy), nil
	case rbac.ModuleCCIH:
		return ccih.Calculate(b.CCIH.Infections, b.CCIH.Isolations, w, opts.CCIH), nil
	case rbac.ModulePhysio:
		return physio.Calculate(b.Physio, w, opts.Physio), nil
	case rbac.ModuleICU:
		return icu.Calculate(b.ICU, w, opts.ICU), nil
	case rbac.ModuleNutrition:
		return nutrition.Calculate(b.Nutrition, w, opts.Nutrition), nil
	case rbac.ModuleLaundry:
		return laundry.Calculate(b.Laundry, w, opts.Laundry), nil
	case rbac.ModuleLinen:
		return linen.Calculate(b.Linen, w, opts.Laundry), nil
	case rbac.ModuleIT:
		return itops.Calculate(b.Tickets, w, opts.ITOps), nil
	case rbac.ModuleSafety:
		return safety.Calculate(b.Safety, w, opts.Safety), nil
	case rbac.ModuleRecords:
		return records.Calculate(b.Records, w, opts.Records), nil
	default:
		return nil, fmt.Errorf("%w: %q", dataset.ErrUnknownModule, module)
	}
}
