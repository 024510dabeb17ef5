package timezone

import "time"

const DefaultTimezone = "Asia/Shanghai"

func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

func Location(tz string) *time.Location {
	return LocationOr(tz, DefaultTimezone)
}

// LocationOr loads tz, then fallback, then UTC.
func LocationOr(tz, fallback string) *time.Location {
	for _, name := range []string{tz, fallback} {
		if !IsValid(name) {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}

// ParseDate reads a YYYY-MM-DD date at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, loc)
}
