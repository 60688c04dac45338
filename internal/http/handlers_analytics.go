package http

import (
	"net/http"

	"budgetlens/internal/core"
	"budgetlens/internal/services"
)

// sectionUnavailable is shown in place of a chart whose ledger failed to load.
// The specific cause is logged by the analytics service.
const sectionUnavailable = "This data file could not be loaded."

type insightJSON struct {
	Message  string `json:"message"`
	Tone     string `json:"tone"`
	Computed bool   `json:"computed"`
}

type highestJSON struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

type sectionJSON struct {
	Points []seriesPoint `json:"points"`
	Total  float64       `json:"total"`
	Error  string        `json:"error,omitempty"`
}

type seriesResponse struct {
	Currency string       `json:"currency"`
	Expenses sectionJSON  `json:"expenses"`
	Income   sectionJSON  `json:"income"`
	Savings  sectionJSON  `json:"savings"`
	Highest  *highestJSON `json:"highest_expense,omitempty"`
	Insights struct {
		Spending insightJSON `json:"spending"`
		Savings  insightJSON `json:"savings"`
	} `json:"insights"`
}

func toInsightJSON(i core.Insight) insightJSON {
	return insightJSON{Message: i.Message, Tone: string(i.Tone), Computed: i.Computed}
}

func toSectionJSON(series core.MonthlySeries, ok bool) sectionJSON {
	if !ok {
		return sectionJSON{Points: []seriesPoint{}, Error: sectionUnavailable}
	}
	return sectionJSON{Points: chartPoints(series), Total: series.Total().InexactFloat64()}
}

// handleSeriesAPI feeds the analytics charts.
func (s *Server) handleSeriesAPI(w http.ResponseWriter, r *http.Request) {
	if s.deps.Analytics == nil {
		ErrorResponse(http.StatusServiceUnavailable, "Analytics are not configured.").Write(w)
		return
	}
	d := s.deps.Analytics.Dashboard(r.Context())

	resp := seriesResponse{
		Currency: d.Currency,
		Expenses: toSectionJSON(d.Expenses.Series, d.Expenses.OK()),
		Income:   toSectionJSON(d.Income.Series, d.Income.OK()),
		Savings:  toSectionJSON(d.Savings, d.SavingsOK),
	}
	if d.HasHighest {
		resp.Highest = &highestJSON{Month: d.HighestExpense.Month.String(), Amount: d.HighestExpense.Amount.InexactFloat64()}
	}
	resp.Insights.Spending = toInsightJSON(d.Spending)
	resp.Insights.Savings = toInsightJSON(d.SavingsRemark)
	writeJSON(w, http.StatusOK, resp)
}

type analyticsView struct {
	services.Dashboard
	Unavailable string
}

// handleAnalyticsPartial renders the Analytics tab; the charts fill
// themselves from /api/series.
func (s *Server) handleAnalyticsPartial(w http.ResponseWriter, r *http.Request) {
	if s.deps.Analytics == nil {
		ErrorResponse(http.StatusServiceUnavailable, "Analytics are not configured.").Write(w)
		return
	}
	view := analyticsView{
		Dashboard:   s.deps.Analytics.Dashboard(r.Context()),
		Unavailable: sectionUnavailable,
	}
	s.render(w, r, http.StatusOK, "analytics.html", view)
}
