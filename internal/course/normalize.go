package course

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"orarend/internal/model"
	"orarend/internal/schedule"
)

// Column names of the course offering export. They are matched exactly.
const (
	ColumnCourseCode   = "Tárgykód"
	ColumnCourseName   = "Tárgynév"
	ColumnClassCode    = "Kurzuskód"
	ColumnClassType    = "Kurzustípus"
	ColumnWeeklyHours  = "Óraszám"
	ColumnScheduleInfo = "Órarend infó"
	ColumnInstructors  = "Oktatók"

	// ColumnWaitingList is present in exports but never read.
	ColumnWaitingList = "Várólista"
)

// Row is one decoded spreadsheet row keyed by column name.
type Row map[string]string

// idNamespace scopes class-code derived course IDs.
var idNamespace = uuid.MustParse("5b0c2a8e-6f0e-4d4b-9a57-7f1d2b8f3e41")

// ID returns the course ID for a class code. The same class code always
// yields the same ID, so re-importing an export keeps IDs stable. An empty
// class code gets a fresh random ID.
func ID(classCode string) string {
	if classCode == "" {
		return uuid.NewString()
	}
	return uuid.NewSHA1(idNamespace, []byte(classCode)).String()
}

// Normalize converts one export row into a Course. Missing or unparsable
// columns fall back to their zero values; Normalize never fails.
func Normalize(row Row) model.Course {
	classCode := field(row, ColumnClassCode)
	raw := row[ColumnScheduleInfo]

	c := model.Course{
		ID:              ID(classCode),
		CourseCode:      field(row, ColumnCourseCode),
		CourseName:      field(row, ColumnCourseName),
		ClassCode:       classCode,
		ClassType:       model.ClassType(field(row, ColumnClassType)),
		WeeklyHours:     WeeklyHours(row[ColumnWeeklyHours]),
		Instructors:     Instructors(row[ColumnInstructors]),
		RawScheduleInfo: raw,
	}

	slots, warnings := schedule.ParseWithWarnings(raw)
	c.Slots = model.AttachCourse(slots, c.ID)
	c.Warnings = warnings
	return c
}

func field(row Row, column string) string {
	return strings.TrimSpace(row[column])
}

// WeeklyHours keeps only the digits of s, e.g. "2 óra/hét" -> 2.
// It returns 0 when no digits remain or the number does not fit an int.
func WeeklyHours(s string) int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// Instructors splits an instructor list on ',' and ';'.
func Instructors(s string) []string {
	res := []string{}
	for _, name := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		name = strings.TrimFunc(name, unicode.IsSpace)
		if name == "" {
			continue
		}
		res = append(res, name)
	}
	return res
}
