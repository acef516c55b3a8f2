package semester

import "time"

// Clock is the time source threaded into everything that needs "now".
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in Location (time.Local when nil).
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time {
	return time.Time(c)
}

// CurrentFrom is Current(clock.Now()).
func CurrentFrom(clock Clock) Semester {
	return Current(clock.Now())
}
