// Package layout positions schedule slots on a vertical day timeline.
//
// The timeline covers [StartHour, EndHour) of a day and is PixelsPerHour
// tall per hour. Offsets are measured from the top of the timeline.
package layout

import (
	"fmt"
	"time"

	"orarend/internal/model"
)

const (
	DefaultStartHour     = 8
	DefaultEndHour       = 20
	DefaultPixelsPerHour = 60
	// DefaultMargin separates adjacent blocks visually.
	DefaultMargin = 2
)

// Window is the visible part of a day.
type Window struct {
	StartHour     int     `json:"start_hour" yaml:"start_hour"`
	EndHour       int     `json:"end_hour" yaml:"end_hour"`
	PixelsPerHour float64 `json:"pixels_per_hour" yaml:"pixels_per_hour"`
	Margin        float64 `json:"slot_margin" yaml:"slot_margin"`
}

func DefaultWindow() Window {
	return Window{
		StartHour:     DefaultStartHour,
		EndHour:       DefaultEndHour,
		PixelsPerHour: DefaultPixelsPerHour,
		Margin:        DefaultMargin,
	}
}

// Validate checks the window geometry.
func (w Window) Validate() error {
	if w.StartHour < 0 || w.StartHour > 23 {
		return fmt.Errorf("layout: start hour %d out of range 0..23", w.StartHour)
	}
	if w.EndHour < 1 || w.EndHour > 24 {
		return fmt.Errorf("layout: end hour %d out of range 1..24", w.EndHour)
	}
	if w.StartHour >= w.EndHour {
		return fmt.Errorf("layout: start hour %d is not before end hour %d", w.StartHour, w.EndHour)
	}
	if w.PixelsPerHour <= 0 {
		return fmt.Errorf("layout: pixels per hour must be positive, got %v", w.PixelsPerHour)
	}
	if w.Margin < 0 {
		return fmt.Errorf("layout: margin must not be negative, got %v", w.Margin)
	}
	return nil
}

func (w Window) startMinute() int { return w.StartHour * 60 }
func (w Window) endMinute() int   { return w.EndHour * 60 }

// Height is the total timeline height.
func (w Window) Height() float64 {
	return float64(w.EndHour-w.StartHour) * w.PixelsPerHour
}

// offset converts minutes since midnight into a timeline offset.
func (w Window) offset(minutes float64) float64 {
	return (minutes - float64(w.startMinute())) / 60 * w.PixelsPerHour
}

// Offset returns the timeline offset of t. Values outside the window give
// negative offsets or offsets beyond Height.
func (w Window) Offset(t model.TimeOfDay) float64 {
	return w.offset(float64(t.Minutes()))
}

// Block is a laid out slot.
type Block struct {
	Slot   model.Slot `json:"slot"`
	Top    float64    `json:"top"`
	Height float64    `json:"height"`
	// Clipped is set when part of the slot lies outside the window.
	Clipped bool `json:"clipped"`
	// Current is set when now falls within the slot on its weekday.
	Current bool `json:"current"`
}

// Result is the layout of one calendar day.
type Result struct {
	Date   time.Time     `json:"date"`
	Day    model.Weekday `json:"day_of_week"`
	Height float64       `json:"height"`
	Blocks []Block       `json:"blocks"`

	// ShowNow and NowOffset describe the "now" indicator line.
	ShowNow   bool    `json:"show_now"`
	NowOffset float64 `json:"now_offset,omitempty"`
}

// Layout places the slots that fall on day's weekday onto the timeline of w.
// now is converted to day's location before any comparison.
//
// Slots entirely outside the window are left out; partially visible slots
// are clipped to the window edges. Overlapping slots are laid out
// independently, in input order.
func Layout(day time.Time, slots []model.Slot, w Window, now time.Time) Result {
	loc := day.Location()
	now = now.In(loc)
	date := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	weekday := model.WeekdayOf(date)

	res := Result{
		Date:   date,
		Day:    weekday,
		Height: w.Height(),
		Blocks: []Block{},
	}

	nowToD := model.TimeOfDayOf(now)
	sameWeekday := model.WeekdayOf(now) == weekday

	for _, s := range slots {
		if s.Day != weekday {
			continue
		}
		b, ok := place(s, w)
		if !ok {
			continue
		}
		b.Current = sameWeekday && s.Covers(nowToD)
		res.Blocks = append(res.Blocks, b)
	}

	if sameDate(date, now) {
		minutes := float64(now.Hour()*60+now.Minute()) + float64(now.Second())/60
		if minutes >= float64(w.startMinute()) && minutes <= float64(w.endMinute()) {
			res.ShowNow = true
			res.NowOffset = w.offset(minutes)
		}
	}

	return res
}

// place computes the geometry of s, reporting false when nothing of it is
// visible.
func place(s model.Slot, w Window) (Block, bool) {
	start, end := s.Start.Minutes(), s.End.Minutes()
	if start >= w.endMinute() || end <= w.startMinute() {
		return Block{}, false
	}

	b := Block{Slot: s}
	if start < w.startMinute() {
		start = w.startMinute()
		b.Clipped = true
	}
	if end > w.endMinute() {
		end = w.endMinute()
		b.Clipped = true
	}

	b.Top = w.offset(float64(start))
	b.Height = float64(end-start)/60*w.PixelsPerHour - w.Margin
	if b.Height < 0 {
		b.Height = 0
	}
	return b, true
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Week lays out Monday through Sunday of the week containing anyDay.
func Week(anyDay time.Time, slots []model.Slot, w Window, now time.Time) []Result {
	offset := int(model.WeekdayOf(anyDay)) - 1
	monday := time.Date(anyDay.Year(), anyDay.Month(), anyDay.Day()-offset, 0, 0, 0, 0, anyDay.Location())

	out := make([]Result, 0, 7)
	for i := 0; i < 7; i++ {
		out = append(out, Layout(monday.AddDate(0, 0, i), slots, w, now))
	}
	return out
}
