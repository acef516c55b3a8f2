package model

import (
	"fmt"
	"time"
)

// Weekday numbers days the way the course export does: Monday=1 .. Sunday=7.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// WeekdayOf returns the Weekday of t in t's own location.
func WeekdayOf(t time.Time) Weekday {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // Sunday is the end of the week
	}
	return Weekday(wd)
}

// Valid reports whether d is within 1..7.
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// Time converts d to the standard library weekday.
func (d Weekday) Time() time.Weekday {
	return time.Weekday(int(d) % 7)
}

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return d.Time().String()
}

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from hour and minute fields.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// TimeOfDayOf returns the time-of-day of t in t's own location.
// Seconds are truncated.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute())
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int { return int(t) }

// On places t on the calendar date of day, in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := time.Parse("15:04", string(b))
	if err != nil {
		return fmt.Errorf("model: invalid time of day %q: %w", string(b), err)
	}
	*t = TimeOfDayOf(parsed)
	return nil
}

// ClassType is a category label for a course occurrence. The set is open;
// the constants below are the labels seen in course exports.
type ClassType string

const (
	ClassTypeLecture    ClassType = "Elmélet"
	ClassTypePractice   ClassType = "Gyakorlat"
	ClassTypeLaboratory ClassType = "Labor"
)

// Slot is one recurring weekly occurrence of a course.
type Slot struct {
	// CourseID points back to the owning Course. It is empty until the
	// slot is attached with AttachCourse.
	CourseID string `json:"course_id,omitempty"`

	Day      Weekday   `json:"day_of_week"`
	Start    TimeOfDay `json:"start_time"`
	End      TimeOfDay `json:"end_time"`
	Location string    `json:"location"`
}

// Duration returns the length of the slot.
func (s Slot) Duration() time.Duration {
	return time.Duration(s.End-s.Start) * time.Minute
}

// Covers reports whether t falls within [Start, End).
func (s Slot) Covers(t TimeOfDay) bool {
	return s.Start <= t && t < s.End
}

// AttachCourse returns copies of slots owned by courseID. The input slice
// is not modified.
func AttachCourse(slots []Slot, courseID string) []Slot {
	out := make([]Slot, len(slots))
	for i, s := range slots {
		s.CourseID = courseID
		out[i] = s
	}
	return out
}

// ParseWarning describes a schedule descriptor that produced no slot.
type ParseWarning struct {
	Descriptor string `json:"descriptor"`
	Reason     string `json:"reason"`
}

func (w ParseWarning) String() string {
	return fmt.Sprintf("%s: %q", w.Reason, w.Descriptor)
}

// Course is one offered class instance.
type Course struct {
	ID          string    `json:"id"`
	CourseCode  string    `json:"course_code"`
	CourseName  string    `json:"course_name"`
	ClassCode   string    `json:"class_code"`
	ClassType   ClassType `json:"class_type"`
	WeeklyHours int       `json:"weekly_hours"`
	Instructors []string  `json:"instructors"`

	// RawScheduleInfo is the unparsed schedule text, kept for diagnostics.
	// Slots is always derived from it.
	RawScheduleInfo string `json:"raw_schedule_info"`
	Slots           []Slot `json:"slots"`

	Warnings []ParseWarning `json:"warnings,omitempty"`
}

// Title is the label used for calendar entries.
func (c Course) Title() string {
	switch {
	case c.CourseName != "" && c.ClassType != "":
		return c.CourseName + " (" + string(c.ClassType) + ")"
	case c.CourseName != "":
		return c.CourseName
	default:
		return c.CourseCode
	}
}

// Occurrence represents a single concrete instance of a slot on a
// calendar date (after recurrence expansion and timezone normalization).
type Occurrence struct {
	CourseID  string `json:"course_id"`
	ClassCode string `json:"class_code"`

	// InstanceKey uniquely identifies a single occurrence, derived from
	// the course ID, the slot position and the local start time.
	InstanceKey string `json:"instance_key"`

	Summary     string `json:"summary"`
	Description string `json:"description"`
	Location    string `json:"location"`

	// Start / End are in the configured display timezone.
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
