package slot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2025, 3, 1, h, m, 0, 0, time.UTC) }

	tests := []struct {
		name string
		a, b [2]time.Time
		want bool
	}{
		{"identical", [2]time.Time{at(10, 0), at(10, 30)}, [2]time.Time{at(10, 0), at(10, 30)}, true},
		{"partial", [2]time.Time{at(10, 0), at(10, 30)}, [2]time.Time{at(10, 15), at(10, 45)}, true},
		{"contained", [2]time.Time{at(10, 0), at(11, 0)}, [2]time.Time{at(10, 15), at(10, 30)}, true},
		{"touching end", [2]time.Time{at(10, 0), at(10, 30)}, [2]time.Time{at(10, 30), at(11, 0)}, false},
		{"touching start", [2]time.Time{at(10, 30), at(11, 0)}, [2]time.Time{at(10, 0), at(10, 30)}, false},
		{"disjoint", [2]time.Time{at(9, 0), at(9, 30)}, [2]time.Time{at(10, 0), at(10, 30)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.a[0], tt.a[1], tt.b[0], tt.b[1]))
			assert.Equal(t, tt.want, Overlaps(tt.b[0], tt.b[1], tt.a[0], tt.a[1]))
		})
	}
}

func TestActiveStates(t *testing.T) {
	assert.True(t, StateHeld.Active())
	assert.True(t, StateConfirmed.Active())
	assert.False(t, StateFree.Active())
}
