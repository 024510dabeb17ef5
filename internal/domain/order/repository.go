package order

import (
	"context"

	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
)

type ListFilter struct {
	UserID   uint
	Status   Status
	Page     int
	PageSize int
}

func (f ListFilter) Normalize() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 10
	}
	if f.PageSize > 50 {
		f.PageSize = 50
	}
	return f
}

func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

type Repository interface {
	// CreateOrder returns httperr.ErrDuplicateOrder if the appointment already
	// has an order.
	CreateOrder(ctx context.Context, o *models.Order) error

	GetOrder(ctx context.Context, id string) (*models.Order, error)

	GetOrderByNo(ctx context.Context, orderNo string) (*models.Order, error)

	GetOrderByAppointment(ctx context.Context, appointmentID string) (*models.Order, error)

	UpdateOrder(ctx context.Context, o *models.Order) error

	ListOrders(ctx context.Context, f ListFilter) ([]models.Order, int64, error)
}
