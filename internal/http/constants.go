package httpx

// CurrentPage identifiers used in templates and navigation.
const (
	PageHome         = "home"
	PageUnauthorized = "unauthorized"
	PageDashboard    = "dashboard"

	PageReconciliations = "reconciliations"
	PageUploads         = "uploads"
	PageLedgerImports   = "ledger-imports"

	PageUsers    = "users"
	PageUserForm = "user-form"

	PageGroups    = "groups"
	PageGroupForm = "group-form"

	PagePeriods    = "periods"
	PagePeriodForm = "period-form"
)

// Screen keys identify a list screen for in-flight request tracking.
const (
	screenReconciliations = "reconciliations"
	screenUploads         = "uploads"
	screenLedgerImports   = "ledger-imports"
	screenUsers           = "users"
	screenGroups          = "groups"
	screenPeriods         = "periods"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
)

// FormMode represents the mode of a form (create or edit).
type FormMode string

const (
	// FormModeEdit indicates the form is in edit mode.
	FormModeEdit FormMode = "edit"
	// FormModeCreate indicates the form is in create mode.
	FormModeCreate FormMode = "create"
)

//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageHome:            "home-content",
	PageUnauthorized:    "unauthorized-content",
	PageDashboard:       "dashboard-content",
	PageReconciliations: "reconciliations-content",
	PageUploads:         "uploads-content",
	PageLedgerImports:   "ledger-imports-content",
	PageUsers:           "users-content",
	PageUserForm:        "user-form-content",
	PageGroups:          "groups-content",
	PageGroupForm:       "group-form-content",
	PagePeriods:         "periods-content",
	PagePeriodForm:      "period-form-content",
}

// ContentTemplateMap returns the mapping from CurrentPage to template name.
func ContentTemplateMap() map[string]string { return contentTemplates }

// ContentTemplateFor returns the content template for the given CurrentPage.
// Unknown pages fall back to the home content.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "home-content"
}
