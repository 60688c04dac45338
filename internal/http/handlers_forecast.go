package http

import (
	"net/http"

	"budgetlens/internal/core"
	"budgetlens/internal/services"
)

type forecastPointJSON struct {
	Month    string  `json:"month"`
	Forecast float64 `json:"forecast"`
}

type forecastResponse struct {
	Available bool                `json:"available"`
	Reason    string              `json:"reason,omitempty"`
	Message   string              `json:"message,omitempty"`
	NextMonth *forecastPointJSON  `json:"next_month,omitempty"`
	Points    []forecastPointJSON `json:"points"`
}

func forecastJSON(f core.Forecast) forecastResponse {
	resp := forecastResponse{Available: f.Available(), Points: []forecastPointJSON{}}
	if !resp.Available {
		resp.Reason = string(f.Reason())
		resp.Message = services.ForecastUnavailableMessage
		return resp
	}
	for _, p := range f.Points {
		resp.Points = append(resp.Points, forecastPointJSON{Month: p.Month.String(), Forecast: p.Forecast.InexactFloat64()})
	}
	if next, ok := f.NextMonth(); ok {
		resp.NextMonth = &forecastPointJSON{Month: next.Month.String(), Forecast: next.Forecast.InexactFloat64()}
	}
	return resp
}

// handleForecastAPI returns the forecast, or the reason it is unavailable.
func (s *Server) handleForecastAPI(w http.ResponseWriter, r *http.Request) {
	if s.deps.Forecast == nil {
		writeJSON(w, http.StatusOK, forecastResponse{
			Reason:  string(core.ForecastNotFound),
			Message: services.ForecastUnavailableMessage,
			Points:  []forecastPointJSON{},
		})
		return
	}
	writeJSON(w, http.StatusOK, forecastJSON(s.deps.Forecast.Load(r.Context())))
}

type forecastView struct {
	Available bool
	Message   string
	Next      core.ForecastPoint
	Points    []core.ForecastPoint
}

func (s *Server) handleForecastPartial(w http.ResponseWriter, r *http.Request) {
	view := forecastView{Message: services.ForecastUnavailableMessage}
	if s.deps.Forecast != nil {
		f := s.deps.Forecast.Load(r.Context())
		if next, ok := f.NextMonth(); ok {
			view.Available = true
			view.Next = next
			view.Points = f.Points
		}
	}
	s.render(w, r, http.StatusOK, "forecast.html", view)
}
