package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/order"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/payment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/dto"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/counselor-scheduler/internal/infra/gateway"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
	"github.com/BruksfildServices01/counselor-scheduler/internal/usecase/booking"
	"github.com/BruksfildServices01/counselor-scheduler/internal/usecase/orderledger"
	"github.com/BruksfildServices01/counselor-scheduler/internal/usecase/reconcile"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

type OrderHandler struct {
	orders     *orderledger.Ledger
	booking    *booking.Coordinator
	reconciler *reconcile.Reconciler
	sandbox    *gateway.Sandbox
	log        *logging.Logger
}

func NewOrderHandler(
	orders *orderledger.Ledger,
	coord *booking.Coordinator,
	rec *reconcile.Reconciler,
	sandbox *gateway.Sandbox,
	log *logging.Logger,
) *OrderHandler {
	return &OrderHandler{
		orders:     orders,
		booking:    coord,
		reconciler: rec,
		sandbox:    sandbox,
		log:        log,
	}
}

// List returns the caller's orders. Admins may pass user_id to look at
// someone else's.
func (h *OrderHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	f := order.ListFilter{
		UserID:   currentUser(c),
		Status:   order.Status(c.Query("status")),
		Page:     page,
		PageSize: size,
	}.Normalize()

	if isAdmin(c) {
		f.UserID = 0
		if s := c.Query("user_id"); s != "" {
			id, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				httperr.BadRequest(c, "invalid_user_id", "Invalid user id.")
				return
			}
			f.UserID = uint(id)
		}
	}

	rows, total, err := h.orders.List(c.Request.Context(), f)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	httpresp.Paged(c, f.Page, f.PageSize, total, dto.Orders(rows))
}

// owned loads the order behind :orderNo if the caller may see it.
func (h *OrderHandler) owned(c *gin.Context) (*models.Order, bool) {
	o, err := h.orders.GetByNo(c.Request.Context(), c.Param("orderNo"))
	if err != nil {
		fail(c, h.log, err)
		return nil, false
	}
	if o.UserID != currentUser(c) && !isAdmin(c) {
		httperr.FromError(c, httperr.ErrForbidden)
		return nil, false
	}
	return o, true
}

func (h *OrderHandler) Get(c *gin.Context) {
	o, ok := h.owned(c)
	if !ok {
		return
	}
	httpresp.OK(c, dto.Order(o))
}

// Refund cancels the appointment behind the order. A Paid order is refunded
// through the gateway, a Pending one is voided.
func (h *OrderHandler) Refund(c *gin.Context) {
	o, ok := h.owned(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.booking.Cancel(ctx, o.AppointmentID, appointment.UserActor(currentUser(c)), appointment.ReasonRefund); err != nil {
		fail(c, h.log, err)
		return
	}

	updated, err := h.orders.Get(ctx, o.ID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	httpresp.OK(c, dto.Order(updated))
}

// Pay makes the sandbox emit a signed success callback and feeds it through
// the reconciler, the same path a real provider notification takes.
func (h *OrderHandler) Pay(c *gin.Context) {
	if h.sandbox == nil {
		httperr.NotFound(c, "sandbox_disabled", "Sandbox payments are disabled.")
		return
	}

	o, ok := h.owned(c)
	if !ok {
		return
	}

	body, sig, err := h.sandbox.Callback(payment.ChargeSucceeded, o.OrderNo, o.Amount, "")
	if err != nil {
		fail(c, h.log, err)
		return
	}

	ack, err := h.reconciler.Handle(c.Request.Context(), body, sig)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, ack)
}
