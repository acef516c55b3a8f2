package ics

import (
	"reflect"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	ical "github.com/arran4/golang-ical"

	"orarend/internal/model"
	"orarend/internal/semester"
)

func testCourses() []model.Course {
	return []model.Course{
		{
			ID:          "c1",
			CourseCode:  "MAT101",
			CourseName:  "Analízis",
			ClassCode:   "K1",
			ClassType:   model.ClassTypeLecture,
			Instructors: []string{"Kovács Anna", "Nagy Béla"},
			Slots: []model.Slot{
				{CourseID: "c1", Day: model.Monday, Start: model.NewTimeOfDay(10, 0), End: model.NewTimeOfDay(11, 30), Location: "Aula"},
			},
		},
		{
			ID:         "c2",
			CourseName: "Fizika",
			ClassCode:  "K2",
			Slots: []model.Slot{
				{CourseID: "c2", Day: model.Friday, Start: model.NewTimeOfDay(8, 0), End: model.NewTimeOfDay(9, 0)},
			},
		},
	}
}

var autumn = semester.Semester{StartYear: 2025, EndYear: 2026, Number: 1}

func Test_Expand_semester(t *testing.T) {
	cfg := ExpandConfig{DisplayLocation: time.UTC}.ForSemester(autumn)
	res, err := Expand(testCourses(), cfg)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}

	// 22 Mondays (Sep 1 .. Jan 26) and 22 Fridays (Sep 5 .. Jan 30).
	if len(res.Occurrences) != 44 {
		t.Fatalf("Expand() returned %d occurrences, want 44", len(res.Occurrences))
	}
	if len(res.TruncatedSlots) != 0 {
		t.Errorf("TruncatedSlots = %v", res.TruncatedSlots)
	}

	first := res.Occurrences[0]
	want := model.Occurrence{
		CourseID:    "c1",
		ClassCode:   "K1",
		InstanceKey: "c1/0/20250901T1000",
		Summary:     "Analízis (Elmélet)",
		Description: "K1\nKovács Anna; Nagy Béla",
		Location:    "Aula",
		Start:       time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC),
		End:         time.Date(2025, 9, 1, 11, 30, 0, 0, time.UTC),
	}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("first occurrence = %+v, want %+v", first, want)
	}

	last := res.Occurrences[len(res.Occurrences)-1]
	if !last.Start.Equal(time.Date(2026, 1, 30, 8, 0, 0, 0, time.UTC)) || last.ClassCode != "K2" {
		t.Errorf("last occurrence = %+v", last)
	}

	for i := 1; i < len(res.Occurrences); i++ {
		if res.Occurrences[i].Start.Before(res.Occurrences[i-1].Start) {
			t.Fatalf("occurrences not sorted at %d", i)
		}
	}
}

func Test_Expand_holidays(t *testing.T) {
	cfg := ExpandConfig{
		DisplayLocation: time.UTC,
		Holidays:        []time.Time{time.Date(2025, 10, 6, 0, 0, 0, 0, time.UTC)},
	}.ForSemester(autumn)
	res, err := Expand(testCourses()[:1], cfg)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if len(res.Occurrences) != 21 {
		t.Errorf("Expand() returned %d occurrences, want 21", len(res.Occurrences))
	}
	for _, occ := range res.Occurrences {
		if occ.Start.Month() == time.October && occ.Start.Day() == 6 {
			t.Errorf("holiday occurrence not removed: %v", occ.Start)
		}
	}
}

func Test_Expand_cap(t *testing.T) {
	cfg := ExpandConfig{DisplayLocation: time.UTC, MaxOccurrencesPerSlot: 3}.ForSemester(autumn)
	res, err := Expand(testCourses()[:1], cfg)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if len(res.Occurrences) != 3 {
		t.Errorf("Expand() returned %d occurrences, want 3", len(res.Occurrences))
	}
	if !reflect.DeepEqual(res.TruncatedSlots, []string{"K1#0"}) {
		t.Errorf("TruncatedSlots = %v", res.TruncatedSlots)
	}
}

func Test_Expand_keepsWallClockAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Budapest")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	cfg := ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      time.Date(2025, 10, 20, 0, 0, 0, 0, loc),
		RangeEnd:        time.Date(2025, 11, 2, 23, 59, 59, 0, loc),
	}
	res, err := Expand(testCourses()[:1], cfg)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if len(res.Occurrences) != 2 {
		t.Fatalf("Expand() returned %d occurrences, want 2", len(res.Occurrences))
	}
	for _, occ := range res.Occurrences {
		if occ.Start.Hour() != 10 || occ.Start.Minute() != 0 {
			t.Errorf("occurrence moved off 10:00 local: %v", occ.Start)
		}
	}
	if res.Occurrences[0].Start.UTC().Hour() == res.Occurrences[1].Start.UTC().Hour() {
		t.Error("expected the UTC hour to change across the DST switch")
	}
}

func Test_Expand_invalidRange(t *testing.T) {
	cfg := ExpandConfig{
		RangeStart: time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC),
		RangeEnd:   time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
	}
	if _, err := Expand(testCourses(), cfg); err == nil {
		t.Error("Expand() expected error for inverted range")
	}
}

func Test_Expand_skipsInvalidWeekday(t *testing.T) {
	courses := []model.Course{{ID: "x", ClassCode: "X", Slots: []model.Slot{{Day: 0, Start: 60, End: 120}}}}
	res, err := Expand(courses, ExpandConfig{DisplayLocation: time.UTC}.ForSemester(autumn))
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if len(res.Occurrences) != 0 {
		t.Errorf("Expand() = %+v, want none", res.Occurrences)
	}
}

func Test_Export(t *testing.T) {
	cfg := ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:        time.Date(2025, 9, 7, 23, 59, 59, 0, time.UTC),
	}
	stamp := time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)
	out, err := Export(testCourses(), cfg, "2025/26/1", stamp)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.HasPrefix(out, "BEGIN:VCALENDAR") {
		t.Errorf("Export() output does not start with VCALENDAR: %q", out)
	}

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("ParseCalendar() error = %v", err)
	}
	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	ev := events[0]
	if got := ev.Id(); got != "c1/0/20250901T1000@orarend" {
		t.Errorf("UID = %q", got)
	}
	if p := ev.GetProperty(ical.ComponentPropertyDtStart); p == nil || p.Value != "20250901T100000Z" {
		t.Errorf("DTSTART = %+v", p)
	}
	if p := ev.GetProperty(ical.ComponentPropertyLocation); p == nil || p.Value != "Aula" {
		t.Errorf("LOCATION = %+v", p)
	}
	if p := events[1].GetProperty(ical.ComponentPropertyLocation); p != nil {
		t.Errorf("LOCATION should be omitted when empty, got %+v", p)
	}
}
