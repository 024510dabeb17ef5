package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/payment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/usecase/reconcile"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

const maxCallbackBody = 64 << 10

type PaymentHandler struct {
	reconciler *reconcile.Reconciler
	log        *logging.Logger
}

func NewPaymentHandler(rec *reconcile.Reconciler, log *logging.Logger) *PaymentHandler {
	return &PaymentHandler{reconciler: rec, log: log}
}

// Callback receives provider notifications. Any non-2xx answer makes the
// provider deliver again, so only verified and recorded callbacks get the Ack.
func (h *PaymentHandler) Callback(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
	if err != nil {
		httperr.BadRequest(c, httperr.CodeInvalidInput, "Unreadable body.")
		return
	}

	ack, err := h.reconciler.Handle(c.Request.Context(), raw, c.GetHeader(payment.SignatureHeader))
	if err != nil {
		if httperr.IsBusiness(err, httperr.CodeInvalidSignature) {
			h.log.Warn("callback signature rejected", "remote_addr", c.ClientIP())
		}
		fail(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, ack)
}
