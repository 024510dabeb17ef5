package order

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
)

func TestTransitions(t *testing.T) {
	assert.NoError(t, Transition(StatusPending, StatusPaid))
	assert.NoError(t, Transition(StatusPending, StatusVoided))
	assert.NoError(t, Transition(StatusPaid, StatusRefunded))

	assert.ErrorIs(t, Transition(StatusPending, StatusRefunded), httperr.ErrInvalidTransition)
	assert.ErrorIs(t, Transition(StatusVoided, StatusPaid), httperr.ErrInvalidTransition)
	assert.ErrorIs(t, Transition(StatusRefunded, StatusPaid), httperr.ErrInvalidTransition)
}

func TestNewOrderNo(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 5, 0, time.UTC)
	no := NewOrderNo(now)

	assert.Regexp(t, regexp.MustCompile(`^20250301100005[0-9A-F]{8}$`), no)
	assert.NotEqual(t, no, NewOrderNo(now))
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("")
	assert.NoError(t, err)
	assert.Equal(t, MethodWechat, m)

	m, err = ParseMethod("alipay")
	assert.NoError(t, err)
	assert.Equal(t, MethodAlipay, m)

	_, err = ParseMethod("cash")
	assert.ErrorIs(t, err, httperr.ErrInvalidInput)
}

func TestListFilterNormalize(t *testing.T) {
	f := ListFilter{Page: 0, PageSize: 500}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 50, f.PageSize)
	assert.Equal(t, 0, f.Offset())

	assert.Equal(t, 20, ListFilter{Page: 3, PageSize: 10}.Normalize().Offset())
}
