// Package semester implements academic half-year arithmetic.
//
// An academic year starts in September. Semester 1 covers September through
// January, semester 2 covers February through August for identification
// purposes; the teaching date range of semester 2 ends on June 30.
package semester

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidSemester = errors.New("invalid semester")

// Semester identifies one academic half-year.
type Semester struct {
	StartYear int `json:"start_year"`
	EndYear   int `json:"end_year"`
	Number    int `json:"number"`
}

// New returns the semester number (1 or 2) of the academic year starting in
// September of startYear.
func New(startYear, number int) (Semester, error) {
	if number != 1 && number != 2 {
		return Semester{}, fmt.Errorf("%w: number %d", ErrInvalidSemester, number)
	}
	return Semester{StartYear: startYear, EndYear: startYear + 1, Number: number}, nil
}

func mustNew(startYear, number int) Semester {
	s, err := New(startYear, number)
	if err != nil {
		panic(err)
	}
	return s
}

// Current returns the semester that now belongs to, using now's own
// calendar fields.
func Current(now time.Time) Semester {
	y, m := now.Year(), now.Month()
	switch {
	case m >= time.September:
		return mustNew(y, 1)
	case m == time.January:
		// January still belongs to the semester that began in September.
		return mustNew(y-1, 1)
	default:
		return mustNew(y-1, 2)
	}
}

// Next returns the following semester.
func (s Semester) Next() Semester {
	if s.Number == 1 {
		return mustNew(s.StartYear, 2)
	}
	return mustNew(s.StartYear+1, 1)
}

// Previous returns the preceding semester. It is the inverse of Next.
func (s Semester) Previous() Semester {
	if s.Number == 2 {
		return mustNew(s.StartYear, 1)
	}
	return mustNew(s.StartYear-1, 2)
}

// String formats s as "2025/26/1".
func (s Semester) String() string {
	return fmt.Sprintf("%d/%02d/%d", s.StartYear, s.EndYear%100, s.Number)
}

// Parse is the inverse of String.
func Parse(v string) (Semester, error) {
	parts := strings.Split(strings.TrimSpace(v), "/")
	if len(parts) != 3 {
		return Semester{}, fmt.Errorf("%w: %q", ErrInvalidSemester, v)
	}
	startYear, err := strconv.Atoi(parts[0])
	if err != nil {
		return Semester{}, fmt.Errorf("%w: %q: %v", ErrInvalidSemester, v, err)
	}
	endShort, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 {
		return Semester{}, fmt.Errorf("%w: %q: bad end year", ErrInvalidSemester, v)
	}
	if (startYear+1)%100 != endShort {
		return Semester{}, fmt.Errorf("%w: %q: end year does not follow start year", ErrInvalidSemester, v)
	}
	number, err := strconv.Atoi(parts[2])
	if err != nil {
		return Semester{}, fmt.Errorf("%w: %q: %v", ErrInvalidSemester, v, err)
	}
	return New(startYear, number)
}

func (s Semester) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Semester) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Range is an inclusive span of whole calendar days. First and Last are
// midnight of the first and last day.
type Range struct {
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`
}

// End returns the instant right after the last day, i.e. the exclusive end.
func (r Range) End() time.Time {
	return r.Last.AddDate(0, 0, 1)
}

// Contains reports whether d's calendar date (in d's own location) lies
// within the range, both ends included.
func (r Range) Contains(d time.Time) bool {
	k := dateKey(d)
	return dateKey(r.First) <= k && k <= dateKey(r.Last)
}

func dateKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// DateRange returns the teaching period of s in loc.
//
//	semester 1: September 1 of StartYear .. January 31 of EndYear
//	semester 2: February 1 .. June 30 of EndYear
func (s Semester) DateRange(loc *time.Location) Range {
	if loc == nil {
		loc = time.Local
	}
	if s.Number == 1 {
		return Range{
			First: time.Date(s.StartYear, time.September, 1, 0, 0, 0, 0, loc),
			Last:  time.Date(s.EndYear, time.January, 31, 0, 0, 0, 0, loc),
		}
	}
	return Range{
		First: time.Date(s.EndYear, time.February, 1, 0, 0, 0, 0, loc),
		Last:  time.Date(s.EndYear, time.June, 30, 0, 0, 0, 0, loc),
	}
}

// Contains reports whether d falls within the semester's date range.
func (s Semester) Contains(d time.Time) bool {
	return s.DateRange(d.Location()).Contains(d)
}

// Week returns the 1-based teaching week of d, counting Monday-aligned weeks
// from the week holding the first day of the semester. It returns 0 when d
// is outside the date range.
func (s Semester) Week(d time.Time) int {
	r := s.DateRange(d.Location())
	if !r.Contains(d) {
		return 0
	}
	first := mondayOf(r.First)
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	// Round to absorb DST shifts between the two midnights.
	days := int(day.Sub(first).Round(24*time.Hour) / (24 * time.Hour))
	return days/7 + 1
}

func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
}
