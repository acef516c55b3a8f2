package schedule

import (
	"reflect"
	"testing"

	"orarend/internal/model"
)

func slot(day model.Weekday, sh, sm, eh, em int, loc string) model.Slot {
	return model.Slot{
		Day:      day,
		Start:    model.NewTimeOfDay(sh, sm),
		End:      model.NewTimeOfDay(eh, em),
		Location: loc,
	}
}

func Test_Parse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []model.Slot
	}{
		{
			name: "single session",
			raw:  "H:10:00-11:30(Room 1)",
			want: []model.Slot{slot(model.Monday, 10, 0, 11, 30, "Room 1")},
		},
		{
			name: "two sessions keep source order",
			raw:  "K:08:00-09:30(A); CS:14:00-15:30(B)",
			want: []model.Slot{
				slot(model.Tuesday, 8, 0, 9, 30, "A"),
				slot(model.Thursday, 14, 0, 15, 30, "B"),
			},
		},
		{
			name: "every day token",
			raw:  "SZ:08:00-09:00(6);P:08:00-09:00(5);CS:08:00-09:00(4);SZE:08:00-09:00(3);K:08:00-09:00(2);H:08:00-09:00(1)",
			want: []model.Slot{
				slot(model.Saturday, 8, 0, 9, 0, "6"),
				slot(model.Friday, 8, 0, 9, 0, "5"),
				slot(model.Thursday, 8, 0, 9, 0, "4"),
				slot(model.Wednesday, 8, 0, 9, 0, "3"),
				slot(model.Tuesday, 8, 0, 9, 0, "2"),
				slot(model.Monday, 8, 0, 9, 0, "1"),
			},
		},
		{
			name: "unknown day token is dropped",
			raw:  "XX:10:00-11:00(Z)",
			want: []model.Slot{},
		},
		{
			name: "empty input",
			raw:  "",
			want: []model.Slot{},
		},
		{
			name: "whitespace input",
			raw:  "  \t ",
			want: []model.Slot{},
		},
		{
			name: "single digit fields",
			raw:  "P:8:5-9:0(Lab)",
			want: []model.Slot{slot(model.Friday, 8, 5, 9, 0, "Lab")},
		},
		{
			name: "location is trimmed and may be empty",
			raw:  "SZE:12:00-13:00(  Aula  );H:07:00-08:00()",
			want: []model.Slot{
				slot(model.Wednesday, 12, 0, 13, 0, "Aula"),
				slot(model.Monday, 7, 0, 8, 0, ""),
			},
		},
		{
			name: "hour out of range",
			raw:  "H:24:00-25:00(A)",
			want: []model.Slot{},
		},
		{
			name: "minute out of range",
			raw:  "H:10:60-11:00(A)",
			want: []model.Slot{},
		},
		{
			name: "end before start",
			raw:  "H:12:00-10:00(A)",
			want: []model.Slot{},
		},
		{
			name: "bad descriptor does not affect the others",
			raw:  "H:10:00-11:00(A);garbage;K:10:00-11:00(B);",
			want: []model.Slot{
				slot(model.Monday, 10, 0, 11, 0, "A"),
				slot(model.Tuesday, 10, 0, 11, 0, "B"),
			},
		},
		{
			name: "day tokens are case sensitive",
			raw:  "h:10:00-11:00(A)",
			want: []model.Slot{},
		},
		{
			name: "missing location parentheses",
			raw:  "H:10:00-11:00",
			want: []model.Slot{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func Test_Parse_idempotent(t *testing.T) {
	raw := "K:08:00-09:30(A); bad; CS:14:00-15:30(B)"
	first := Parse(raw)
	second := Parse(raw)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Parse() not deterministic: %v vs %v", first, second)
	}
}

func Test_ParseWithWarnings(t *testing.T) {
	raw := "H:10:00-11:00(A); XX:10:00-11:00(Z); H:10:61-11:00(B); H:11:00-11:00(C); nonsense ;"
	slots, warnings := ParseWithWarnings(raw)

	wantSlots := []model.Slot{slot(model.Monday, 10, 0, 11, 0, "A")}
	if !reflect.DeepEqual(slots, wantSlots) {
		t.Errorf("slots = %v, want %v", slots, wantSlots)
	}

	wantWarnings := []model.ParseWarning{
		{Descriptor: "XX:10:00-11:00(Z)", Reason: ReasonUnknownDay},
		{Descriptor: "H:10:61-11:00(B)", Reason: ReasonTimeRange},
		{Descriptor: "H:11:00-11:00(C)", Reason: ReasonEmptySpan},
		{Descriptor: "nonsense", Reason: ReasonGrammar},
	}
	if !reflect.DeepEqual(warnings, wantWarnings) {
		t.Errorf("warnings = %v, want %v", warnings, wantWarnings)
	}
}

func Test_ParseWithWarnings_clean(t *testing.T) {
	_, warnings := ParseWithWarnings("H:10:00-11:00(A);")
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
}

func Test_Format_roundTrip(t *testing.T) {
	raw := "K:08:00-09:30(A); CS:14:00-15:30(B)"
	slots := Parse(raw)
	if got := Format(slots); got != raw {
		t.Errorf("Format() = %q, want %q", got, raw)
	}
	if got := Format([]model.Slot{slot(model.Sunday, 8, 0, 9, 0, "X")}); got != "" {
		t.Errorf("Format(sunday) = %q, want empty", got)
	}
}

func Test_DayToken(t *testing.T) {
	if got := DayToken(model.Wednesday); got != "SZE" {
		t.Errorf("DayToken(Wednesday) = %q", got)
	}
	if got := DayToken(model.Sunday); got != "" {
		t.Errorf("DayToken(Sunday) = %q", got)
	}
}
