package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httpresp"
	calendar "github.com/BruksfildServices01/counselor-scheduler/internal/usecase/appointment"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

type CalendarHandler struct {
	byDate  *calendar.ListAppointmentsByDate
	byMonth *calendar.ListAppointmentsByMonth
	log     *logging.Logger
}

func NewCalendarHandler(
	byDate *calendar.ListAppointmentsByDate,
	byMonth *calendar.ListAppointmentsByMonth,
	log *logging.Logger,
) *CalendarHandler {
	return &CalendarHandler{byDate: byDate, byMonth: byMonth, log: log}
}

// GET /api/me/appointments?date=YYYY-MM-DD
func (h *CalendarHandler) ByDate(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		httperr.BadRequest(c, "missing_date", "Query parameter date is required.")
		return
	}

	out, err := h.byDate.Execute(c.Request.Context(), currentUser(c), date)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	httpresp.List(c, out)
}

// GET /api/me/appointments/month?year=YYYY&month=MM
func (h *CalendarHandler) ByMonth(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		httperr.BadRequest(c, "invalid_year", "Invalid year.")
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		httperr.BadRequest(c, "invalid_month", "Invalid month.")
		return
	}

	out, err := h.byMonth.Execute(c.Request.Context(), currentUser(c), year, month)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	httpresp.List(c, out)
}
