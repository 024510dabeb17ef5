// Package app wires the booking engine from its ports. cmd/api,
// cmd/callback-worker and the cross-package tests all build it here.
package app

import (
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/counselor-scheduler/internal/clock"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/order"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/payment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/slot"
	"github.com/BruksfildServices01/counselor-scheduler/internal/infra/gateway"
	"github.com/BruksfildServices01/counselor-scheduler/internal/infra/memory"
	"github.com/BruksfildServices01/counselor-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/counselor-scheduler/internal/lock"
	"github.com/BruksfildServices01/counselor-scheduler/internal/metrics"
	"github.com/BruksfildServices01/counselor-scheduler/internal/notify"
	calendar "github.com/BruksfildServices01/counselor-scheduler/internal/usecase/appointment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/usecase/booking"
	"github.com/BruksfildServices01/counselor-scheduler/internal/usecase/orderledger"
	"github.com/BruksfildServices01/counselor-scheduler/internal/usecase/reconcile"
	"github.com/BruksfildServices01/counselor-scheduler/internal/usecase/slotledger"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

type Repositories struct {
	Slots        slot.Repository
	Appointments appointment.Repository
	Orders       order.Repository
	Callbacks    payment.CallbackStore
	Directory    schedule.Directory
}

func MemoryRepositories(s *memory.Store) Repositories {
	return Repositories{
		Slots:        s,
		Appointments: s,
		Orders:       s,
		Callbacks:    s,
		Directory:    s,
	}
}

func GormRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Slots:        repository.NewSlotGormRepository(db),
		Appointments: repository.NewAppointmentGormRepository(db),
		Orders:       repository.NewOrderGormRepository(db),
		Callbacks:    repository.NewCallbackGormRepository(db),
		Directory:    repository.NewDirectoryGormRepository(db),
	}
}

type Options struct {
	Repos    Repositories
	Locks    lock.Locker
	Clock    clock.Clock
	Log      *logging.Logger
	Metrics  *metrics.EngineMetrics
	Sink     notify.Sink
	Archive  payment.Archiver
	Verifier *gateway.HMACVerifier

	// Gateway defaults to a Sandbox signed with Verifier.
	Gateway payment.Gateway

	HoldTTL            time.Duration
	CallbackRetention  time.Duration
	GatewayMaxAttempts int
	GatewayBackoff     time.Duration
	DefaultTimezone    string

	// Background runs booking side work such as charge initiation.
	// Nil uses a goroutine per task.
	Background func(fn func())
}

type Engine struct {
	Slots      *slotledger.Ledger
	Orders     *orderledger.Ledger
	Booking    *booking.Coordinator
	Schedule   *booking.GetSchedule
	Reconciler *reconcile.Reconciler
	Hours      *schedule.HoursChecker
	Verifier   *gateway.HMACVerifier

	// Counselor calendar read models.
	DayAgenda   *calendar.ListAppointmentsByDate
	MonthAgenda *calendar.ListAppointmentsByMonth

	// Sandbox is nil when a real gateway was supplied.
	Sandbox *gateway.Sandbox

	Clock   clock.Clock
	Log     *logging.Logger
	Metrics *metrics.EngineMetrics
}

func Build(o Options) *Engine {
	if o.Clock == nil {
		o.Clock = clock.Real{}
	}
	if o.Log == nil {
		o.Log = logging.Default()
	}
	if o.Locks == nil {
		o.Locks = lock.NewKeyedMutex()
	}
	if o.Verifier == nil {
		o.Verifier = gateway.NewHMACVerifier("")
	}

	var sandbox *gateway.Sandbox
	gw := o.Gateway
	if gw == nil {
		sandbox = gateway.NewSandbox(o.Verifier, o.Clock)
		gw = sandbox
	}
	gw = gateway.NewRetrying(gw, o.GatewayMaxAttempts, o.GatewayBackoff, o.Log)

	slots := slotledger.New(o.Repos.Slots, o.Locks, o.Clock, o.Log, o.Metrics)
	orders := orderledger.New(o.Repos.Orders, o.Locks, o.Clock, o.Log, o.Metrics)
	hours := schedule.NewHoursChecker(o.Repos.Directory, o.DefaultTimezone)

	coord := booking.NewCoordinator(booking.Deps{
		Appointments: o.Repos.Appointments,
		Slots:        slots,
		Orders:       orders,
		Directory:    o.Repos.Directory,
		Availability: hours,
		Gateway:      gw,
		Sink:         o.Sink,
		Locks:        o.Locks,
		Clock:        o.Clock,
		Log:          o.Log,
		Metrics:      o.Metrics,
		HoldTTL:      o.HoldTTL,
		Background:   o.Background,
	})

	rec := reconcile.New(reconcile.Deps{
		Verifier:  o.Verifier,
		Store:     o.Repos.Callbacks,
		Archive:   o.Archive,
		Orders:    orders,
		Booking:   coord,
		Locks:     o.Locks,
		Clock:     o.Clock,
		Log:       o.Log,
		Metrics:   o.Metrics,
		Retention: o.CallbackRetention,
	})

	return &Engine{
		Slots:      slots,
		Orders:     orders,
		Booking:    coord,
		Schedule:   booking.NewGetSchedule(hours, slots, o.Clock),
		Reconciler: rec,
		Hours:      hours,
		Verifier:   o.Verifier,

		DayAgenda:   calendar.NewListAppointmentsByDate(o.Repos.Appointments, hours),
		MonthAgenda: calendar.NewListAppointmentsByMonth(o.Repos.Appointments, hours),

		Sandbox: sandbox,
		Clock:   o.Clock,
		Log:     o.Log,
		Metrics: o.Metrics,
	}
}
