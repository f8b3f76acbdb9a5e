package controllers

import (
	"net/http"
	"time"

	"github.com/sangambaral17/TradeMaster/api/responses"
	"github.com/sangambaral17/TradeMaster/api/validators"
	"github.com/sangambaral17/TradeMaster/internal/reports"
	pkgerrors "github.com/sangambaral17/TradeMaster/pkg/errors"
	"github.com/sangambaral17/TradeMaster/pkg/logger"
)

const (
	weeklyLookbackDays      = 6
	topProductsLookbackDays = 29
	maxTopProductsQuery     = 100
)

// ReportClock resolves "today" for report defaults in the reporting zone.
type ReportClock struct {
	Location *time.Location
	Now      func() time.Time
}

func (c ReportClock) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c ReportClock) today() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	t := now().In(c.location())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.location())
}

func DailyReport(svc reports.Service, clock ReportClock, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := validators.ParseQueryDate(r, "date", clock.location(), clock.today())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.Daily(r.Context(), date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// WeeklyReport defaults to the seven days ending today.
func WeeklyReport(svc reports.Service, clock ReportClock, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, err := validators.ParseQueryDate(r, "start", clock.location(), clock.today().AddDate(0, 0, -weeklyLookbackDays))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.Weekly(r.Context(), start)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func MonthlyReport(svc reports.Service, clock ReportClock, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		today := clock.today()
		year, err := validators.ParseQueryInt(r, "year", today.Year(), 1, 9999)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		month, err := validators.ParseQueryInt(r, "month", int(today.Month()), 1, 12)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.Monthly(r.Context(), year, time.Month(month))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// RangeReport requires both ends; each is an inclusive calendar day.
func RangeReport(svc reports.Service, clock ReportClock, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, err := validators.ParseOptionalQueryDate(r, "start", clock.location())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		end, err := validators.ParseOptionalQueryDate(r, "end", clock.location())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if start == nil || end == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "start and end are required").
				WithDetails(map[string]any{"format": validators.DateLayout}))
			return
		}
		report, err := svc.Range(r.Context(), *start, *end)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// TopProducts ranks products by units sold between two calendar days
// inclusive, defaulting to the last thirty days.
func TopProducts(svc reports.Service, clock ReportClock, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		today := clock.today()
		start, err := validators.ParseQueryDate(r, "start", clock.location(), today.AddDate(0, 0, -topProductsLookbackDays))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		end, err := validators.ParseQueryDate(r, "end", clock.location(), today)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, maxTopProductsQuery)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		endOfDay := end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		products, err := svc.TopProducts(r.Context(), start, endOfDay, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}
