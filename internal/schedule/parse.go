// Package schedule parses the free-text schedule column of a course export
// into weekly slots.
//
// The column is a ';'-separated list of session descriptors:
//
//	DAY:HH:MM-HH:MM(LOCATION)
//
// where DAY is one of the Hungarian weekday abbreviations H, K, SZE, CS, P,
// SZ (Monday..Saturday).
package schedule

import (
	"regexp"
	"strconv"
	"strings"

	"orarend/internal/model"
)

const sessionSeparator = ";"

// Reasons reported in model.ParseWarning.
const (
	ReasonGrammar    = "descriptor does not match DAY:HH:MM-HH:MM(LOCATION)"
	ReasonUnknownDay = "unknown day token"
	ReasonTimeRange  = "hour or minute out of range"
	ReasonEmptySpan  = "start is not before end"
)

var dayTokens = map[string]model.Weekday{
	"H":   model.Monday,
	"K":   model.Tuesday,
	"SZE": model.Wednesday,
	"CS":  model.Thursday,
	"P":   model.Friday,
	"SZ":  model.Saturday,
}

// DayToken returns the export abbreviation for d, or "" for Sunday, which
// has no token in the source data.
func DayToken(d model.Weekday) string {
	for tok, wd := range dayTokens {
		if wd == d {
			return tok
		}
	}
	return ""
}

// The day group accepts any letters so that unknown tokens can be told apart
// from structurally broken descriptors.
var sessionRe = regexp.MustCompile(`^([A-Za-z]+):(\d{1,2}):(\d{1,2})-(\d{1,2}):(\d{1,2})\(([^)]*)\)$`)

// Parse returns the slots described by raw in source order. Descriptors that
// do not match the grammar are dropped without any signal; use
// ParseWithWarnings to find out what was dropped.
func Parse(raw string) []model.Slot {
	slots, _ := ParseWithWarnings(raw)
	return slots
}

// ParseWithWarnings is Parse plus one warning per dropped non-empty
// descriptor. A bad descriptor never aborts the rest of the parse.
func ParseWithWarnings(raw string) ([]model.Slot, []model.ParseWarning) {
	slots := []model.Slot{}
	var warnings []model.ParseWarning

	if strings.TrimSpace(raw) == "" {
		return slots, warnings
	}

	for _, part := range strings.Split(raw, sessionSeparator) {
		descriptor := strings.TrimSpace(part)
		if descriptor == "" {
			// Trailing or doubled separators.
			continue
		}
		slot, reason := parseSession(descriptor)
		if reason != "" {
			warnings = append(warnings, model.ParseWarning{Descriptor: descriptor, Reason: reason})
			continue
		}
		slots = append(slots, slot)
	}
	return slots, warnings
}

// parseSession parses one trimmed descriptor. A non-empty reason means the
// descriptor produced no slot.
func parseSession(descriptor string) (model.Slot, string) {
	m := sessionRe.FindStringSubmatch(descriptor)
	if m == nil {
		return model.Slot{}, ReasonGrammar
	}

	day, ok := dayTokens[m[1]]
	if !ok {
		return model.Slot{}, ReasonUnknownDay
	}

	start, ok := clock(m[2], m[3])
	if !ok {
		return model.Slot{}, ReasonTimeRange
	}
	end, ok := clock(m[4], m[5])
	if !ok {
		return model.Slot{}, ReasonTimeRange
	}
	if start >= end {
		return model.Slot{}, ReasonEmptySpan
	}

	return model.Slot{
		Day:      day,
		Start:    start,
		End:      end,
		Location: strings.TrimSpace(m[6]),
	}, ""
}

func clock(hh, mm string) (model.TimeOfDay, bool) {
	// The regexp guarantees 1-2 digits, so Atoi cannot fail.
	h, _ := strconv.Atoi(hh)
	m, _ := strconv.Atoi(mm)
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return model.NewTimeOfDay(h, m), true
}

// Format renders slots back into the export grammar. Sunday slots have no
// day token and are skipped.
func Format(slots []model.Slot) string {
	parts := make([]string, 0, len(slots))
	for _, s := range slots {
		tok := DayToken(s.Day)
		if tok == "" {
			continue
		}
		parts = append(parts, tok+":"+s.Start.String()+"-"+s.End.String()+"("+s.Location+")")
	}
	return strings.Join(parts, sessionSeparator+" ")
}
