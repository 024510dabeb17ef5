package httperr

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

var statusByCode = map[string]int{
	CodeSlotUnavailable:      http.StatusConflict,
	CodeInvalidTransition:    http.StatusConflict,
	CodeDuplicateOrder:       http.StatusConflict,
	CodeHoldNotFound:         http.StatusNotFound,
	CodeInvalidSignature:     http.StatusUnauthorized,
	CodeGatewayUnavailable:   http.StatusServiceUnavailable,
	CodeInvalidAmount:        http.StatusBadRequest,
	CodeNotFound:             http.StatusNotFound,
	CodeForbidden:            http.StatusForbidden,
	CodeInvalidInput:         http.StatusBadRequest,
	CodeTooLate:              http.StatusBadRequest,
	CodeOutsideAvailability:  http.StatusBadRequest,
	CodeCounselorUnavailable: http.StatusNotFound,
	CodeLockTimeout:          http.StatusServiceUnavailable,
}

var messageByCode = map[string]string{
	CodeSlotUnavailable:      "The requested time slot is no longer available.",
	CodeInvalidTransition:    "The operation is not allowed in the current state.",
	CodeDuplicateOrder:       "An order already exists for this appointment.",
	CodeHoldNotFound:         "The slot hold has expired or was never granted.",
	CodeInvalidSignature:     "Invalid signature.",
	CodeGatewayUnavailable:   "Payment provider unavailable, try again later.",
	CodeInvalidAmount:        "Invalid amount.",
	CodeNotFound:             "Resource not found.",
	CodeForbidden:            "Not allowed.",
	CodeInvalidInput:         "Invalid request.",
	CodeTooLate:              "The appointment has already started.",
	CodeOutsideAvailability:  "Outside the counselor's availability.",
	CodeCounselorUnavailable: "Counselor not found or not verified.",
	CodeLockTimeout:          "Busy, try again.",
}

// StatusFor maps an error to its HTTP status and code.
func StatusFor(err error) (int, string) {
	code := Code(err)
	if status, ok := statusByCode[code]; ok {
		return status, code
	}
	return http.StatusInternalServerError, "internal_error"
}

// FromError writes err using the business code taxonomy.
func FromError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	msg, ok := messageByCode[code]
	if !ok {
		msg = "Internal error."
	}
	Write(c, status, code, msg)
}
