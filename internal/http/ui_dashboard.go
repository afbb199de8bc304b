package httpx

import (
	"net/http"

	domainauth "github.com/target/recon-console/internal/domain/auth"
	"github.com/target/recon-console/internal/domain/model"
	apperrors "github.com/target/recon-console/internal/errors"
)

// Dashboard serves the landing page for role: analytics panels plus shortcuts
// to the role's screens.
func (h *UIHandlers) Dashboard(role domainauth.Role) http.HandlerFunc {
	meta := PageMeta{
		Title:       titled(role.Label() + " dashboard"),
		PageTitle:   role.Label() + " dashboard",
		CurrentPage: PageDashboard,
	}
	shortcuts := navFor(role)
	if len(shortcuts) > 0 {
		shortcuts = shortcuts[1:]
	}

	return func(w http.ResponseWriter, r *http.Request) {
		b := NewTemplateData(r, meta).
			With("Role", role).
			With("Shortcuts", shortcuts)

		if h.Analytics == nil {
			b.WithError(apperrors.GenericFailureMessage)
			h.renderDashboardPage(w, r, b.Build())
			return
		}

		summary, err := h.Analytics.Summary(r.Context(), callerFromRequest(r))
		if err != nil {
			h.logger().ErrorContext(r.Context(), "dashboard analytics failed", "role", role, "error", err)
			b.WithError(apperrors.UserMessage(err))
			summary = model.AnalyticsSummary{}
		}
		b.With("Summary", summary).
			With("Total", summary.Total())
		h.renderDashboardPage(w, r, b.Build())
	}
}
