package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/order"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

// CreateOrder relies on the unique index on appointment_id for the one
// order per appointment rule.
func (r *OrderGormRepository) CreateOrder(
	ctx context.Context,
	o *models.Order,
) error {
	if err := r.db.WithContext(ctx).Create(o).Error; err != nil {
		if isDuplicate(err) {
			return httperr.ErrDuplicateOrder
		}
		return err
	}
	return nil
}

func (r *OrderGormRepository) first(ctx context.Context, query string, arg any) (*models.Order, error) {
	var o models.Order
	if err := r.db.WithContext(ctx).
		Where(query, arg).
		First(&o).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *OrderGormRepository) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *OrderGormRepository) GetOrderByNo(ctx context.Context, orderNo string) (*models.Order, error) {
	return r.first(ctx, "order_no = ?", orderNo)
}

func (r *OrderGormRepository) GetOrderByAppointment(ctx context.Context, appointmentID string) (*models.Order, error) {
	return r.first(ctx, "appointment_id = ?", appointmentID)
}

func (r *OrderGormRepository) UpdateOrder(
	ctx context.Context,
	o *models.Order,
) error {
	return r.db.WithContext(ctx).Save(o).Error
}

func (r *OrderGormRepository) ListOrders(
	ctx context.Context,
	f order.ListFilter,
) ([]models.Order, int64, error) {

	f = f.Normalize()

	q := r.db.WithContext(ctx).Model(&models.Order{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.Order
	if err := q.
		Order("created_at DESC").
		Offset(f.Offset()).
		Limit(f.PageSize).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Compile-time check
var _ order.Repository = (*OrderGormRepository)(nil)
