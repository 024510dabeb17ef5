// Package httpresp renders the JSON envelopes shared by every handler.
package httpresp

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// ListResponse is an unpaged list; Total is len(Data).
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

func List[T any](c *gin.Context, data []T) {
	if data == nil {
		data = []T{}
	}
	c.JSON(http.StatusOK, ListResponse[T]{
		Data:  data,
		Total: len(data),
	})
}

// Page is one page of a larger result; Total counts every matching row.
type Page[T any] struct {
	Data     []T   `json:"data"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

func Paged[T any](c *gin.Context, page, pageSize int, total int64, data []T) {
	if data == nil {
		data = []T{}
	}
	c.JSON(http.StatusOK, Page[T]{
		Data:     data,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	})
}
