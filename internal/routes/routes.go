package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/counselor-scheduler/internal/app"
	"github.com/BruksfildServices01/counselor-scheduler/internal/config"
	"github.com/BruksfildServices01/counselor-scheduler/internal/handlers"
	"github.com/BruksfildServices01/counselor-scheduler/internal/middleware"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

type Deps struct {
	Engine *app.Engine
	Config *config.Config
	Log    *logging.Logger

	// DB is nil in memory mode; the routes backed by plain gorm queries
	// (working hours, audit logs) are then not registered.
	DB *gorm.DB

	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
}

func RegisterRoutes(r *gin.Engine, d Deps) {

	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(middleware.CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// ======================================================
	// HANDLERS
	// ======================================================
	e := d.Engine

	appointmentHandler := handlers.NewAppointmentHandler(e.Booking, d.Log)
	counselorHandler := handlers.NewCounselorHandler(e.Schedule, d.Log)
	paymentHandler := handlers.NewPaymentHandler(e.Reconciler, d.Log)
	calendarHandler := handlers.NewCalendarHandler(e.DayAgenda, e.MonthAgenda, d.Log)

	// the simulate-pay endpoint only exists in debug builds
	sandbox := e.Sandbox
	if !d.Config.Debug {
		sandbox = nil
	}
	orderHandler := handlers.NewOrderHandler(e.Orders, e.Booking, e.Reconciler, sandbox, d.Log)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// PUBLIC
		// ------------------------------
		api.GET("/counselors/:id/schedule", counselorHandler.Schedule)
		api.POST("/payments/callback", paymentHandler.Callback)

		// ------------------------------
		// PRIVATE
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(d.Config))
		{
			secured.POST("/appointments", appointmentHandler.Create)
			secured.GET("/appointments/my", appointmentHandler.ListMine)
			secured.GET("/appointments/:id", appointmentHandler.Get)
			secured.POST("/appointments/:id/cancel", appointmentHandler.Cancel)

			secured.GET("/orders", orderHandler.List)
			secured.GET("/orders/:orderNo", orderHandler.Get)
			secured.POST("/orders/:orderNo/refund", orderHandler.Refund)
			if sandbox != nil {
				secured.POST("/orders/:orderNo/pay", orderHandler.Pay)
			}

			counselor := secured.Group("/me", middleware.RequireRole(middleware.RoleCounselor))
			counselor.GET("/appointments", calendarHandler.ByDate)
			counselor.GET("/appointments/month", calendarHandler.ByMonth)

			if d.DB != nil {
				workingHoursHandler := handlers.NewWorkingHoursHandler(d.DB)
				auditLogsHandler := handlers.NewAuditLogsHandler(d.DB)

				counselor.GET("/working-hours", workingHoursHandler.Get)
				counselor.PUT("/working-hours", workingHoursHandler.Update)

				secured.GET("/audit-logs", middleware.RequireRole(middleware.RoleAdmin), auditLogsHandler.List)
			}
		}
	}
}
