package ics

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	appLog "orarend/internal/log"
	"orarend/internal/model"
	"orarend/internal/semester"
)

const (
	defaultMaxOccurrencesPerSlot = 500
)

// ExpandConfig controls how weekly slots are materialized into dated
// occurrences.
type ExpandConfig struct {
	// DisplayLocation is the timezone slot times are interpreted in.
	// If nil, time.Local is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd define the inclusive time window for occurrences.
	RangeStart time.Time
	RangeEnd   time.Time

	// Holidays are calendar dates without teaching. Only the date part is used.
	Holidays []time.Time

	// MaxOccurrencesPerSlot is a safety cap. If zero,
	// defaultMaxOccurrencesPerSlot is used.
	MaxOccurrencesPerSlot int
}

// ForSemester returns a copy of cfg whose range covers the teaching period of s.
func (cfg ExpandConfig) ForSemester(s semester.Semester) ExpandConfig {
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	r := s.DateRange(cfg.DisplayLocation)
	cfg.RangeStart = r.First
	cfg.RangeEnd = r.End().Add(-time.Second)
	return cfg
}

// ExpandResult wraps the list of expanded occurrences and optionally
// information about truncation.
type ExpandResult struct {
	Occurrences []model.Occurrence
	// TruncatedSlots records "<class code>#<slot index>" for slots that hit
	// MaxOccurrencesPerSlot.
	TruncatedSlots []string
}

// Expand turns every slot of courses into a weekly recurrence and returns
// the occurrences that start within the configured range, sorted by start.
// Holidays are removed as exception dates.
func Expand(courses []model.Course, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerSlot <= 0 {
		cfg.MaxOccurrencesPerSlot = defaultMaxOccurrencesPerSlot
	}

	all := make([]model.Occurrence, 0)
	for _, c := range courses {
		for i, s := range c.Slots {
			occ, hitCap, err := expandSlot(c, i, s, cfg)
			if err != nil {
				// Log and skip this slot, but keep expanding others.
				appLog.Error("expand: failed to build weekly rule", err, "class_code", c.ClassCode, "slot", i)
				continue
			}
			if hitCap {
				key := c.ClassCode + "#" + strconv.Itoa(i)
				result.TruncatedSlots = append(result.TruncatedSlots, key)
				appLog.Error("expand: truncated occurrences for slot due to cap",
					errors.New("max occurrences reached"),
					"slot", key,
					"cap", cfg.MaxOccurrencesPerSlot,
				)
			}
			all = append(all, occ...)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].Start.Equal(all[j].Start) {
			return all[i].Start.Before(all[j].Start)
		}
		return all[i].InstanceKey < all[j].InstanceKey
	})

	result.Occurrences = all
	return result, nil
}

func expandSlot(c model.Course, index int, s model.Slot, cfg ExpandConfig) ([]model.Occurrence, bool, error) {
	loc := cfg.DisplayLocation
	rangeStart := cfg.RangeStart.In(loc)
	rangeEnd := cfg.RangeEnd.In(loc)

	if !s.Day.Valid() {
		return nil, false, errors.New("slot weekday out of range")
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rruleWeekday(s.Day)},
		Dtstart:   s.Start.On(rangeStart),
	})
	if err != nil {
		return nil, false, err
	}

	var set rrule.Set
	set.RRule(r)
	for _, h := range cfg.Holidays {
		h = h.In(loc)
		set.ExDate(s.Start.On(time.Date(h.Year(), h.Month(), h.Day(), 0, 0, 0, 0, loc)))
	}

	times := set.Between(rangeStart, rangeEnd, true)

	hitCap := false
	if len(times) > cfg.MaxOccurrencesPerSlot {
		times = times[:cfg.MaxOccurrencesPerSlot]
		hitCap = true
	}

	out := make([]model.Occurrence, 0, len(times))
	for _, start := range times {
		out = append(out, makeOccurrence(c, index, s, start.In(loc)))
	}
	return out, hitCap, nil
}

func makeOccurrence(c model.Course, index int, s model.Slot, start time.Time) model.Occurrence {
	return model.Occurrence{
		CourseID:    c.ID,
		ClassCode:   c.ClassCode,
		InstanceKey: c.ID + "/" + strconv.Itoa(index) + "/" + start.Format("20060102T1504"),
		Summary:     c.Title(),
		Description: describe(c),
		Location:    s.Location,
		Start:       start,
		End:         start.Add(s.Duration()),
	}
}

func describe(c model.Course) string {
	lines := make([]string, 0, 2)
	if c.ClassCode != "" {
		lines = append(lines, c.ClassCode)
	}
	if len(c.Instructors) > 0 {
		lines = append(lines, strings.Join(c.Instructors, "; "))
	}
	return strings.Join(lines, "\n")
}

func rruleWeekday(d model.Weekday) rrule.Weekday {
	switch d {
	case model.Monday:
		return rrule.MO
	case model.Tuesday:
		return rrule.TU
	case model.Wednesday:
		return rrule.WE
	case model.Thursday:
		return rrule.TH
	case model.Friday:
		return rrule.FR
	case model.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}
