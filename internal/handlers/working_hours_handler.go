package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
)

// WorkingHoursHandler lets a counselor publish weekly hours. Days without a
// row fall back to the default grid.
type WorkingHoursHandler struct {
	db *gorm.DB
}

func NewWorkingHoursHandler(db *gorm.DB) *WorkingHoursHandler {
	return &WorkingHoursHandler{db: db}
}

type WorkingDayConfig struct {
	Weekday    int    `json:"weekday" binding:"min=0,max=6"`
	Active     bool   `json:"active"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	BreakStart string `json:"break_start"`
	BreakEnd   string `json:"break_end"`
}

type WorkingHoursUpdateRequest struct {
	Days []WorkingDayConfig `json:"days" binding:"required,dive"`
}

func (h *WorkingHoursHandler) Get(c *gin.Context) {
	var hours []models.WorkingHours
	if err := h.db.WithContext(c.Request.Context()).
		Where("counselor_id = ?", currentUser(c)).
		Order("weekday ASC").
		Find(&hours).Error; err != nil {

		httperr.Internal(c, "failed_to_get_working_hours", "Failed to load working hours.")
		return
	}

	c.JSON(http.StatusOK, hours)
}

func (h *WorkingHoursHandler) Update(c *gin.Context) {
	counselorID := currentUser(c)

	var req WorkingHoursUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"details": err.Error(),
		})
		return
	}

	var toCreate []models.WorkingHours
	for _, d := range req.Days {
		wh := models.WorkingHours{
			CounselorID: counselorID,
			Weekday:     d.Weekday,
			Active:      d.Active,
			StartTime:   d.StartTime,
			EndTime:     d.EndTime,
			BreakStart:  d.BreakStart,
			BreakEnd:    d.BreakEnd,
		}
		if hours, ok := schedule.FromWorkingHours(&wh); ok {
			if err := hours.Validate(); err != nil {
				httperr.BadRequest(c, "invalid_working_hours", "Invalid working hours.")
				return
			}
		}
		toCreate = append(toCreate, wh)
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("counselor_id = ?", counselorID).Delete(&models.WorkingHours{}).Error; err != nil {
			return err
		}
		if len(toCreate) == 0 {
			return nil
		}
		return tx.Create(&toCreate).Error
	})
	if err != nil {
		httperr.Internal(c, "failed_to_save_working_hours", "Failed to save working hours.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
