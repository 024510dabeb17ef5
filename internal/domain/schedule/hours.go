// Package schedule holds the counselor availability rule: working hours
// with an optional break, evaluated in the counselor's local time.
package schedule

import (
	"time"

	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
)

// Step is the grid on which bookable start times are offered.
const Step = 30 * time.Minute

type Hours struct {
	Start      string
	End        string
	BreakStart string
	BreakEnd   string
}

// DefaultHours applies when a counselor has not configured a weekday.
var DefaultHours = Hours{
	Start:      "09:00",
	End:        "18:00",
	BreakStart: "12:00",
	BreakEnd:   "14:00",
}

// FromWorkingHours returns false for an inactive or incomplete row.
func FromWorkingHours(wh *models.WorkingHours) (Hours, bool) {
	if wh == nil || !wh.Active || wh.StartTime == "" || wh.EndTime == "" {
		return Hours{}, false
	}
	return Hours{
		Start:      wh.StartTime,
		End:        wh.EndTime,
		BreakStart: wh.BreakStart,
		BreakEnd:   wh.BreakEnd,
	}, true
}

// Validate checks HH:MM formats, a positive working span and a break that
// sits inside it.
func (h Hours) Validate() error {
	parse := func(hm string) (time.Time, bool) {
		t, err := time.Parse("15:04", hm)
		return t, err == nil
	}

	start, ok1 := parse(h.Start)
	end, ok2 := parse(h.End)
	if !ok1 || !ok2 || !start.Before(end) {
		return httperr.ErrInvalidInput
	}

	if h.BreakStart == "" && h.BreakEnd == "" {
		return nil
	}
	bs, ok1 := parse(h.BreakStart)
	be, ok2 := parse(h.BreakEnd)
	if !ok1 || !ok2 || !bs.Before(be) || bs.Before(start) || be.After(end) {
		return httperr.ErrInvalidInput
	}
	return nil
}

type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (h Hours) hasBreak() bool {
	return h.BreakStart != "" && h.BreakEnd != ""
}

// On anchors the hours to the calendar day of day, in day's location.
func (h Hours) On(day time.Time) (work Window, brk *Window) {
	parseHM := func(hm string) time.Time {
		t, _ := time.Parse("15:04", hm)
		return time.Date(
			day.Year(), day.Month(), day.Day(),
			t.Hour(), t.Minute(), 0, 0,
			day.Location(),
		)
	}

	work = Window{Start: parseHM(h.Start), End: parseHM(h.End)}
	if h.hasBreak() {
		brk = &Window{Start: parseHM(h.BreakStart), End: parseHM(h.BreakEnd)}
	}
	return work, brk
}

// Within reports whether [start, end) fits inside the working window and
// does not touch the break. start must already be in the counselor's location.
func (h Hours) Within(start, end time.Time) bool {
	work, brk := h.On(start)

	if start.Before(work.Start) || end.After(work.End) {
		return false
	}

	if brk != nil && start.Before(brk.End) && end.After(brk.Start) {
		return false
	}

	return true
}

// FreeStarts walks the day on the Step grid and returns every window of the
// given length that fits the hours and does not overlap busy.
func (h Hours) FreeStarts(day time.Time, length time.Duration, busy []Window) []Window {
	work, _ := h.On(day)
	out := []Window{}

	for cur := work.Start; !cur.Add(length).After(work.End); cur = cur.Add(Step) {
		end := cur.Add(length)
		if !h.Within(cur, end) {
			continue
		}

		conflict := false
		for _, b := range busy {
			if cur.Before(b.End) && b.Start.Before(end) {
				conflict = true
				break
			}
		}
		if !conflict {
			out = append(out, Window{Start: cur, End: end})
		}
	}

	return out
}
