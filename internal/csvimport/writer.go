package csvimport

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"orarend/internal/model"
	"orarend/internal/schedule"
)

// SlotRow is one line of the flat slot export.
type SlotRow struct {
	CourseID   string `csv:"course_id"`
	CourseCode string `csv:"course_code"`
	CourseName string `csv:"course_name"`
	ClassCode  string `csv:"class_code"`
	ClassType  string `csv:"class_type"`
	Day        int    `csv:"day_of_week"`
	DayToken   string `csv:"day"`
	Start      string `csv:"start_time"`
	End        string `csv:"end_time"`
	Location   string `csv:"location"`
}

// SlotRows flattens courses into one row per slot, in course then slot order.
func SlotRows(courses []model.Course) []*SlotRow {
	rows := []*SlotRow{}
	for _, c := range courses {
		for _, s := range c.Slots {
			rows = append(rows, &SlotRow{
				CourseID:   c.ID,
				CourseCode: c.CourseCode,
				CourseName: c.CourseName,
				ClassCode:  c.ClassCode,
				ClassType:  string(c.ClassType),
				Day:        int(s.Day),
				DayToken:   schedule.DayToken(s.Day),
				Start:      s.Start.String(),
				End:        s.End.String(),
				Location:   s.Location,
			})
		}
	}
	return rows
}

// WriteSlots writes the flat slot export as comma-separated CSV with a
// header line.
func WriteSlots(w io.Writer, courses []model.Course) error {
	if err := gocsv.Marshal(SlotRows(courses), w); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
