package http

import (
	"net/http"

	"budgetlens/internal/core"
	applog "budgetlens/internal/log"
)

type historyView struct {
	Enabled       bool
	ExportEnabled bool
	Batches       []core.Batch
	Error         string
}

// handleHistoryPartial lists the most recent categorization runs.
func (s *Server) handleHistoryPartial(w http.ResponseWriter, r *http.Request) {
	view := historyView{}
	if s.deps.History != nil {
		view.Enabled = true
		view.ExportEnabled = s.deps.History.ExportEnabled()
		limit := ParseLimitParam(r.URL.Query(), 10, 100)
		batches, err := s.deps.History.Recent(r.Context(), limit)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Failed to list batches",
				applog.FieldError, err,
				applog.FieldOperation, applog.OpList)
			view.Error = "History is unavailable right now."
		}
		view.Batches = batches
	}
	s.render(w, r, http.StatusOK, "history.html", view)
}
