package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/counselor-scheduler/internal/usecase/booking"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

type CounselorHandler struct {
	schedule *booking.GetSchedule
	log      *logging.Logger
}

func NewCounselorHandler(uc *booking.GetSchedule, log *logging.Logger) *CounselorHandler {
	return &CounselorHandler{schedule: uc, log: log}
}

// Schedule answers GET /counselors/:id/schedule?date=YYYY-MM-DD&duration=N.
func (h *CounselorHandler) Schedule(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		httperr.BadRequest(c, "invalid_counselor_id", "Invalid counselor id.")
		return
	}

	date := c.Query("date")
	if date == "" {
		httperr.BadRequest(c, "missing_date", "Query parameter date is required.")
		return
	}

	duration := 0
	if s := c.Query("duration"); s != "" {
		if duration, err = strconv.Atoi(s); err != nil {
			httperr.BadRequest(c, "invalid_duration", "Invalid duration.")
			return
		}
	}

	out, err := h.schedule.Execute(c.Request.Context(), booking.ScheduleInput{
		CounselorID: uint(id),
		Date:        date,
		Duration:    duration,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}

	httpresp.OK(c, out)
}
