package rbac

import "strings"

// KPI modules.
const (
	ModuleVisits      = "visits"
	ModuleScheduling  = "scheduling"
	ModuleAdmissions  = "admissions"
	ModuleBeds        = "beds"
	ModuleLaboratory  = "laboratory"
	ModuleImaging     = "imaging"
	ModuleTransfusion = "transfusion"
	ModulePharmacy    = "pharmacy"
	ModuleCCIH        = "ccih"
	ModulePhysio      = "physio"
	ModuleICU         = "icu"
	ModuleNutrition   = "nutrition"
	ModuleLaundry     = "laundry"
	ModuleLinen       = "linen"
	ModuleIT          = "itops"
	ModuleSafety      = "safety"
	ModuleRecords     = "records"
)

// Administration modules.
const (
	ModuleTenants = "tenants"
	ModuleUsers   = "users"
	ModuleRoles   = "roles"
)

var (
	full       = Capabilities{View: true, Create: true, Edit: true, Delete: true, Export: true}
	viewOnly   = Capabilities{View: true}
	viewExport = Capabilities{View: true, Export: true}
)

// KPIModules lists the dashboard modules in display order.
func KPIModules() []string {
	return []string{
		ModuleVisits,
		ModuleScheduling,
		ModuleAdmissions,
		ModuleBeds,
		ModuleLaboratory,
		ModuleImaging,
		ModuleTransfusion,
		ModulePharmacy,
		ModuleCCIH,
		ModulePhysio,
		ModuleICU,
		ModuleNutrition,
		ModuleLaundry,
		ModuleLinen,
		ModuleIT,
		ModuleSafety,
		ModuleRecords,
	}
}

// AdminModules lists the administration modules.
func AdminModules() []string {
	return []string{ModuleTenants, ModuleUsers, ModuleRoles}
}

// Modules lists every module known to the matrix.
func Modules() []string {
	return append(KPIModules(), AdminModules()...)
}

// IsKPIModule reports whether module is a dashboard module.
func IsKPIModule(module string) bool {
	module = normalize(module)
	for _, m := range KPIModules() {
		if m == module {
			return true
		}
	}
	return false
}

func isAdminModule(module string) bool {
	for _, m := range AdminModules() {
		if m == module {
			return true
		}
	}
	return false
}

// Lookup returns the capabilities of role on module. Unknown modules and roles get
// nothing.
func Lookup(module string, role Role) Capabilities {
	module = normalize(module)
	kpi := IsKPIModule(module)
	if !kpi && !isAdminModule(module) {
		return Capabilities{}
	}
	switch role {
	case RoleMaster:
		return full
	case RoleAdmin:
		if module == ModuleTenants {
			return viewOnly
		}
		return full
	case RoleAnalyst:
		if kpi {
			return viewExport
		}
	case RoleViewer:
		if kpi {
			return viewOnly
		}
	}
	return Capabilities{}
}

// Can reports whether role may perform action on module.
func Can(module string, role Role, action Action) bool {
	return Lookup(module, role).Allows(action)
}

// Matrix returns the capabilities of role on every module.
func Matrix(role Role) map[string]Capabilities {
	out := make(map[string]Capabilities, len(Modules()))
	for _, m := range Modules() {
		out[m] = Lookup(m, role)
	}
	return out
}

// Viewable lists the KPI modules role may view, in display order.
func Viewable(role Role) []string {
	out := make([]string, 0, len(KPIModules()))
	for _, m := range KPIModules() {
		if Can(m, role, ActionView) {
			out = append(out, m)
		}
	}
	return out
}

// Permission formats a module/action pair as a scope string, e.g. "beds.export".
func Permission(module string, action Action) string {
	return normalize(module) + "." + string(action)
}

// Scopes lists the permission strings granted to role.
func Scopes(role Role) []string {
	var out []string
	for _, m := range Modules() {
		for _, a := range Lookup(m, role).Actions() {
			out = append(out, Permission(m, a))
		}
	}
	return out
}

func normalize(module string) string {
	return strings.ToLower(strings.TrimSpace(module))
}
