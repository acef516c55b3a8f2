// Package csvimport reads course offering exports (CSV saved from the
// spreadsheet) and turns them into normalized courses.
package csvimport

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"orarend/internal/course"
	appLog "orarend/internal/log"
	"orarend/internal/model"
)

const (
	DefaultDelimiter = ';'
	DefaultEncoding  = "utf-8"
)

// Options controls how an export file is decoded.
type Options struct {
	// Delimiter separates fields; zero means DefaultDelimiter.
	Delimiter rune
	// Encoding names the file's character set: utf-8, windows-1250 or
	// iso-8859-2. A byte order mark in the file overrides it.
	Encoding string
}

// exportRow mirrors the export's header. Columns missing from a file are
// left empty; the waiting-list column is never read.
type exportRow struct {
	CourseCode   string `csv:"Tárgykód"`
	CourseName   string `csv:"Tárgynév"`
	ClassCode    string `csv:"Kurzuskód"`
	ClassType    string `csv:"Kurzustípus"`
	WeeklyHours  string `csv:"Óraszám"`
	ScheduleInfo string `csv:"Órarend infó"`
	Instructors  string `csv:"Oktatók"`
}

func (r *exportRow) toRow() course.Row {
	return course.Row{
		course.ColumnCourseCode:   r.CourseCode,
		course.ColumnCourseName:   r.CourseName,
		course.ColumnClassCode:    r.ClassCode,
		course.ColumnClassType:    r.ClassType,
		course.ColumnWeeklyHours:  r.WeeklyHours,
		course.ColumnScheduleInfo: r.ScheduleInfo,
		course.ColumnInstructors:  r.Instructors,
	}
}

// Load opens path and reads it with Read.
func Load(path string, opts Options) ([]model.Course, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	courses, err := Read(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "import %s", path)
	}
	return courses, nil
}

// Read decodes an export and normalizes every row into a Course.
//
// Rows with neither course code nor class code are not courses (section
// headers, totals) and are skipped. When a class code repeats, the later row
// replaces the earlier one at the earlier position.
func Read(in io.Reader, opts Options) ([]model.Course, error) {
	enc, err := lookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}
	delim := opts.Delimiter
	if delim == 0 {
		delim = DefaultDelimiter
	}

	// A UTF-8 or UTF-16 BOM wins over the configured encoding.
	decoded := transform.NewReader(in, unicode.BOMOverride(enc.NewDecoder()))
	r := csv.NewReader(decoded)
	r.Comma = delim
	// Spreadsheet exports do not always escape quotes inside cells.
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	rows := []*exportRow{}
	if err := gocsv.UnmarshalCSV(r, &rows); err != nil {
		return nil, errors.WithStack(err)
	}

	courses := make([]model.Course, 0, len(rows))
	byClassCode := make(map[string]int)
	skipped, warnings := 0, 0

	for _, row := range rows {
		if strings.TrimSpace(row.CourseCode) == "" && strings.TrimSpace(row.ClassCode) == "" {
			skipped++
			continue
		}

		c := course.Normalize(row.toRow())
		for _, w := range c.Warnings {
			warnings++
			appLog.Warn("schedule descriptor dropped",
				"class_code", c.ClassCode,
				"descriptor", w.Descriptor,
				"reason", w.Reason,
			)
		}

		if c.ClassCode != "" {
			if i, ok := byClassCode[c.ClassCode]; ok {
				appLog.Debug("duplicate class code replaced", "class_code", c.ClassCode)
				courses[i] = c
				continue
			}
			byClassCode[c.ClassCode] = len(courses)
		}
		courses = append(courses, c)
	}

	appLog.Info("csv import completed",
		"rows", len(rows),
		"courses", len(courses),
		"skipped", skipped,
		"warnings", warnings,
	)
	return courses, nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "windows-1250", "cp1250":
		return charmap.Windows1250, nil
	case "iso-8859-2", "latin2":
		return charmap.ISO8859_2, nil
	default:
		return nil, errors.Errorf("csvimport: unsupported encoding %q", name)
	}
}

// SupportedEncoding reports whether name is accepted by Options.Encoding.
func SupportedEncoding(name string) bool {
	_, err := lookupEncoding(name)
	return err == nil
}
