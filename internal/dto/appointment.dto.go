package dto

import (
	"time"

	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
)

type AppointmentListDTO struct {
	ID            string    `json:"id"`
	UserID        uint      `json:"user_id"`
	CounselorID   uint      `json:"counselor_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
	EndTime       time.Time `json:"end_time"`
	Duration      int       `json:"duration"`
	Status        string    `json:"status"`
	Amount        int64     `json:"amount"`
}

func AppointmentList(aps []models.Appointment) []AppointmentListDTO {
	out := make([]AppointmentListDTO, 0, len(aps))
	for _, ap := range aps {
		out = append(out, AppointmentListDTO{
			ID:            ap.ID,
			UserID:        ap.UserID,
			CounselorID:   ap.CounselorID,
			ScheduledTime: ap.ScheduledTime,
			EndTime:       ap.EndTime,
			Duration:      ap.Duration,
			Status:        ap.Status,
			Amount:        ap.Amount,
		})
	}
	return out
}

// OrderDTO hides provider references from clients.
type OrderDTO struct {
	ID            string     `json:"id"`
	OrderNo       string     `json:"order_no"`
	AppointmentID string     `json:"appointment_id"`
	Amount        int64      `json:"amount"`
	PaymentMethod string     `json:"payment_method"`
	Status        string     `json:"status"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	RefundedAt    *time.Time `json:"refunded_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func Order(o *models.Order) OrderDTO {
	return OrderDTO{
		ID:            o.ID,
		OrderNo:       o.OrderNo,
		AppointmentID: o.AppointmentID,
		Amount:        o.Amount,
		PaymentMethod: o.PaymentMethod,
		Status:        o.Status,
		PaidAt:        o.PaidAt,
		RefundedAt:    o.RefundedAt,
		CreatedAt:     o.CreatedAt,
	}
}

func Orders(orders []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		out = append(out, Order(&orders[i]))
	}
	return out
}

type BookingDTO struct {
	Appointment *models.Appointment `json:"appointment"`
	Order       OrderDTO            `json:"order"`
}
