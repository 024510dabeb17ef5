package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/dto"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/counselor-scheduler/internal/usecase/booking"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	booking *booking.Coordinator
	log     *logging.Logger
}

func NewAppointmentHandler(coord *booking.Coordinator, log *logging.Logger) *AppointmentHandler {
	return &AppointmentHandler{booking: coord, log: log}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateAppointmentRequest struct {
	CounselorID   uint      `json:"counselor_id" binding:"required"`
	StartTime     time.Time `json:"start_time" binding:"required"`
	Duration      int       `json:"duration"`
	PaymentMethod string    `json:"payment_method"`
	Notes         string    `json:"notes"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

// ======================================================
// CREATE
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	res, err := h.booking.RequestBooking(c.Request.Context(), booking.BookingInput{
		UserID:      currentUser(c),
		CounselorID: req.CounselorID,
		StartTime:   req.StartTime,
		Duration:    req.Duration,
		Method:      req.PaymentMethod,
		Notes:       req.Notes,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}

	httpresp.Created(c, dto.BookingDTO{
		Appointment: res.Appointment,
		Order:       dto.Order(res.Order),
	})
}

// ======================================================
// CANCEL
// ======================================================

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	var req CancelAppointmentRequest
	// body is optional
	_ = c.ShouldBindJSON(&req)

	ap, err := h.booking.Cancel(
		c.Request.Context(),
		c.Param("id"),
		appointment.UserActor(currentUser(c)),
		req.Reason,
	)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	httpresp.OK(c, ap)
}

// ======================================================
// READ
// ======================================================

func (h *AppointmentHandler) ListMine(c *gin.Context) {
	aps, err := h.booking.ListMine(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	httpresp.List(c, dto.AppointmentList(aps))
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	ap, err := h.booking.GetAppointment(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	httpresp.OK(c, ap)
}
