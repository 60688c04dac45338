package services

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"budgetlens/internal/core"
	applog "budgetlens/internal/log"
	"budgetlens/internal/tabular"
)

// ForecastUnavailableMessage is shown for every reason a forecast is missing.
const ForecastUnavailableMessage = "Forecast data not available. Please run the forecasting model first."

// ForecastService reads the pre-computed forecast file on demand.
type ForecastService struct {
	path   string
	logger *applog.Logger
}

func NewForecastService(path string, logger *applog.Logger) *ForecastService {
	return &ForecastService{path: path, logger: logger.WithComponent(applog.ComponentForecast)}
}

// Load never fails: problems come back as an unavailable Forecast whose
// reason is logged.
func (s *ForecastService) Load(ctx context.Context) core.Forecast {
	f := s.load()
	if f.Err != nil {
		fields := applog.NewFields().WithOperation(applog.OpLoad).WithError(f.Err, applog.ErrorTypeData).
			WithReason(string(f.Reason()))
		fields[applog.FieldFile] = s.path
		s.logger.Fields(ctx, slog.LevelWarn, "Forecast unavailable", fields)
	}
	return f
}

func (s *ForecastService) load() core.Forecast {
	t, err := tabular.ReadFile(s.path)
	if err != nil {
		return core.Forecast{Err: &core.ForecastError{Reason: readReason(err), Err: err}}
	}
	return core.ForecastFromTable(t)
}

func readReason(err error) core.ForecastReason {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return core.ForecastNotFound
	case errors.Is(err, tabular.ErrEmptyFile):
		return core.ForecastEmpty
	case errors.Is(err, tabular.ErrMalformed):
		return core.ForecastMalformedCSV
	default:
		return core.ForecastUnreadable
	}
}
