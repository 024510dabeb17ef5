package routes_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/BruksfildServices01/counselor-scheduler/internal/app/apptest"
	"github.com/BruksfildServices01/counselor-scheduler/internal/config"
	"github.com/BruksfildServices01/counselor-scheduler/internal/db"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/payment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/middleware"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
	"github.com/BruksfildServices01/counselor-scheduler/internal/routes"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

const jwtSecret = "route-test-secret"

type server struct {
	t *testing.T
	f *apptest.Fixture
	r *gin.Engine
}

func newServer(t *testing.T, debug bool, gdb *gorm.DB) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := apptest.New(t)
	r := gin.New()
	routes.RegisterRoutes(r, routes.Deps{
		Engine:   f.Engine,
		Config:   &config.Config{JWTSecret: jwtSecret, Debug: debug},
		Log:      logging.Discard(),
		DB:       gdb,
		Gatherer: prometheus.NewRegistry(),
	})
	return &server{t: t, f: f, r: r}
}

func (s *server) token(user uint, role string) string {
	s.t.Helper()
	tok, err := middleware.SignToken(jwtSecret, user, role)
	require.NoError(s.t, err)
	return tok
}

func (s *server) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case []byte:
		buf.Write(b)
	default:
		require.NoError(s.t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

type bookingBody struct {
	Appointment models.Appointment `json:"appointment"`
	Order       struct {
		ID      string `json:"id"`
		OrderNo string `json:"order_no"`
		Amount  int64  `json:"amount"`
		Status  string `json:"status"`
	} `json:"order"`
}

func (s *server) book(user uint, start string) bookingBody {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/appointments", s.token(user, middleware.RoleUser), gin.H{
		"counselor_id": apptest.Counselor,
		"start_time":   start,
		"duration":     30,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	var out bookingBody
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestBookAndSandboxPay(t *testing.T) {
	s := newServer(t, true, nil)
	userA := s.token(apptest.UserA, middleware.RoleUser)

	b := s.book(apptest.UserA, "2025-03-01T10:00:00Z")
	assert.Equal(t, "pending", b.Appointment.Status)
	assert.Equal(t, int64(5000), b.Order.Amount)

	w := s.do(http.MethodPost, "/api/orders/"+b.Order.OrderNo+"/pay", userA, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"code":"SUCCESS","message":"OK"}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/appointments/"+b.Appointment.ID, userA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "confirmed", decode[models.Appointment](t, w).Status)

	w = s.do(http.MethodGet, "/api/orders", userA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[orderList](t, w)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, "paid", list.Orders[0].Status)

	w = s.do(http.MethodGet, "/api/appointments/my", userA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, w)["total"])
}

type orderList struct {
	Total  int64 `json:"total"`
	Orders []struct {
		OrderNo string `json:"order_no"`
		Status  string `json:"status"`
	} `json:"data"`
}

func TestBookingConflictIs409(t *testing.T) {
	s := newServer(t, false, nil)
	s.book(apptest.UserA, "2025-03-01T10:00:00Z")

	w := s.do(http.MethodPost, "/api/appointments", s.token(apptest.UserB, middleware.RoleUser), gin.H{
		"counselor_id": apptest.Counselor,
		"start_time":   "2025-03-01T10:15:00Z",
		"duration":     30,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "slot_unavailable", decode[map[string]any](t, w)["error_code"])
}

func TestBookingValidation(t *testing.T) {
	s := newServer(t, false, nil)
	tok := s.token(apptest.UserA, middleware.RoleUser)

	w := s.do(http.MethodPost, "/api/appointments", tok, gin.H{"start_time": "2025-03-01T10:00:00Z"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/appointments", tok, gin.H{
		"counselor_id": apptest.Counselor,
		"start_time":   "2025-03-01T12:30:00Z",
		"duration":     30,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "outside_availability", decode[map[string]any](t, w)["error_code"])

	w = s.do(http.MethodPost, "/api/appointments", "", gin.H{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentCallbackEndpoint(t *testing.T) {
	s := newServer(t, false, nil)
	res := s.f.MustBook(apptest.UserA, apptest.At(10, 0))
	body, sig := s.f.Callback(payment.ChargeSucceeded, res.Order, res.Order.Amount)

	w := s.do(http.MethodPost, "/api/payments/callback", "", body, payment.SignatureHeader, "bad")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/payments/callback", "", body, payment.SignatureHeader, sig)
	require.Equal(t, http.StatusOK, w.Code)
	first := w.Body.String()

	// replay answers with the same ack
	w = s.do(http.MethodPost, "/api/payments/callback", "", body, payment.SignatureHeader, sig)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first, w.Body.String())

	assert.Equal(t, "confirmed", s.f.Appointment(res.Appointment.ID).Status)
}

func TestRefundAfterPayment(t *testing.T) {
	s := newServer(t, false, nil)
	res := s.f.MustBook(apptest.UserA, apptest.At(10, 0))
	s.f.Pay(res.Order)

	w := s.do(http.MethodPost, "/api/orders/"+res.Order.OrderNo+"/refund", s.token(apptest.UserB, middleware.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/orders/"+res.Order.OrderNo+"/refund", s.token(apptest.UserA, middleware.RoleUser), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "refunded", decode[map[string]any](t, w)["status"])
	assert.Equal(t, "cancelled", s.f.Appointment(res.Appointment.ID).Status)
}

func TestCancelEndpoint(t *testing.T) {
	s := newServer(t, false, nil)
	res := s.f.MustBook(apptest.UserA, apptest.At(10, 0))

	path := "/api/appointments/" + res.Appointment.ID + "/cancel"
	w := s.do(http.MethodPost, path, s.token(apptest.UserB, middleware.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// the counselor may cancel too
	w = s.do(http.MethodPost, path, s.token(apptest.Counselor, middleware.RoleCounselor), gin.H{"reason": "sick"})
	require.Equal(t, http.StatusOK, w.Code)
	ap := decode[models.Appointment](t, w)
	assert.Equal(t, "cancelled", ap.Status)
	assert.Equal(t, "sick", ap.CancelReason)
}

func TestPayRouteNeedsDebug(t *testing.T) {
	s := newServer(t, false, nil)
	res := s.f.MustBook(apptest.UserA, apptest.At(10, 0))

	w := s.do(http.MethodPost, "/api/orders/"+res.Order.OrderNo+"/pay", s.token(apptest.UserA, middleware.RoleUser), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScheduleEndpoint(t *testing.T) {
	s := newServer(t, false, nil)
	s.f.MustBook(apptest.UserA, apptest.At(10, 0))

	w := s.do(http.MethodGet, fmt.Sprintf("/api/counselors/%d/schedule?date=2025-03-01&duration=30", apptest.Counselor), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		Slots []struct {
			Start string `json:"start"`
		} `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(t, out.Slots)
	for _, sl := range out.Slots {
		assert.NotEqual(t, "2025-03-01T10:00:00Z", sl.Start)
	}

	w = s.do(http.MethodGet, fmt.Sprintf("/api/counselors/%d/schedule", apptest.Counselor), "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/counselors/abc/schedule?date=2025-03-01", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCounselorCalendar(t *testing.T) {
	s := newServer(t, false, nil)
	s.f.MustBook(apptest.UserA, apptest.At(10, 0))
	s.f.MustBook(apptest.UserB, apptest.At(11, 0))
	counselor := s.token(apptest.Counselor, middleware.RoleCounselor)

	w := s.do(http.MethodGet, "/api/me/appointments?date=2025-03-01", counselor, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), decode[map[string]any](t, w)["total"])

	w = s.do(http.MethodGet, "/api/me/appointments?date=2025-03-02", counselor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode[map[string]any](t, w)["total"])

	w = s.do(http.MethodGet, "/api/me/appointments/month?year=2025&month=3", counselor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode[map[string]any](t, w)["total"])

	w = s.do(http.MethodGet, "/api/me/appointments/month?year=2025&month=13", counselor, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/me/appointments?date=2025-03-01", s.token(apptest.UserA, middleware.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer(t, false, nil)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/metrics", "", nil).Code)
}

func newSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func TestWorkingHoursRoutes(t *testing.T) {
	gdb := newSQLite(t)
	s := newServer(t, false, gdb)
	counselor := s.token(apptest.Counselor, middleware.RoleCounselor)

	w := s.do(http.MethodPut, "/api/me/working-hours", s.token(apptest.UserA, middleware.RoleUser), gin.H{"days": []any{}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPut, "/api/me/working-hours", counselor, gin.H{"days": []gin.H{
		{"weekday": 1, "active": true, "start_time": "17:00", "end_time": "10:00"},
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/api/me/working-hours", counselor, gin.H{"days": []gin.H{
		{"weekday": 1, "active": true, "start_time": "10:00", "end_time": "17:00", "break_start": "12:00", "break_end": "13:00"},
		{"weekday": 0, "active": false},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/me/working-hours", counselor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode[[]models.WorkingHours](t, w)
	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[0].Weekday)
	assert.Equal(t, "10:00", rows[1].StartTime)
}

func TestAuditLogsRoute(t *testing.T) {
	gdb := newSQLite(t)
	s := newServer(t, false, gdb)
	require.NoError(t, gdb.Create(&models.AuditLog{Actor: "system", Action: "booking_confirmed", Entity: "appointment", EntityID: "a1"}).Error)
	require.NoError(t, gdb.Create(&models.AuditLog{Actor: "system", Action: "payment_received", Entity: "order", EntityID: "o1"}).Error)

	w := s.do(http.MethodGet, "/api/audit-logs", s.token(apptest.UserA, middleware.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := s.token(9, middleware.RoleAdmin)
	w = s.do(http.MethodGet, "/api/audit-logs?entity=order", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, w)["total"])

	w = s.do(http.MethodGet, "/api/audit-logs?actor=system&limit=1", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, float64(2), body["total"])
	assert.Len(t, body["data"], 1)

	w = s.do(http.MethodGet, "/api/audit-logs?from=yesterday", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
