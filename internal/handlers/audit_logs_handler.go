package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/order"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
)

type AuditLogsHandler struct {
	db *gorm.DB
}

func NewAuditLogsHandler(db *gorm.DB) *AuditLogsHandler {
	return &AuditLogsHandler{db: db}
}

type auditQuery struct {
	Actor    string `form:"actor"`
	Action   string `form:"action"`
	Entity   string `form:"entity"`
	EntityID string `form:"entity_id"`
	From     string `form:"from"`
	To       string `form:"to"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

// scopes turns the query into gorm scopes. from and to are inclusive
// calendar days in UTC.
func (q auditQuery) scopes() ([]func(*gorm.DB) *gorm.DB, error) {
	var out []func(*gorm.DB) *gorm.DB
	eq := func(col, v string) {
		if v != "" {
			out = append(out, func(db *gorm.DB) *gorm.DB { return db.Where(col+" = ?", v) })
		}
	}
	eq("actor", q.Actor)
	eq("action", q.Action)
	eq("entity", q.Entity)
	eq("entity_id", q.EntityID)

	if q.From != "" {
		from, err := time.Parse(time.DateOnly, q.From)
		if err != nil {
			return nil, err
		}
		out = append(out, func(db *gorm.DB) *gorm.DB { return db.Where("created_at >= ?", from) })
	}
	if q.To != "" {
		to, err := time.Parse(time.DateOnly, q.To)
		if err != nil {
			return nil, err
		}
		out = append(out, func(db *gorm.DB) *gorm.DB { return db.Where("created_at < ?", to.AddDate(0, 0, 1)) })
	}
	return out, nil
}

// List is admin only; routes guard it with RequireRole.
func (h *AuditLogsHandler) List(c *gin.Context) {
	var q auditQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httperr.BadRequest(c, "invalid_query", "Invalid query parameters.")
		return
	}
	scopes, err := q.scopes()
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Dates must be YYYY-MM-DD.")
		return
	}
	page := order.ListFilter{Page: q.Page, PageSize: q.Limit}.Normalize()

	base := h.db.WithContext(c.Request.Context()).Model(&models.AuditLog{}).Scopes(scopes...)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		httperr.Internal(c, "audit_count_failed", "Failed to count audit logs.")
		return
	}

	logs := []models.AuditLog{}
	if err := base.Session(&gorm.Session{}).
		Order("created_at DESC, id DESC").
		Limit(page.PageSize).
		Offset(page.Offset()).
		Find(&logs).Error; err != nil {
		httperr.Internal(c, "audit_list_failed", "Failed to list audit logs.")
		return
	}

	httpresp.Paged(c, page.Page, page.PageSize, total, logs)
}
