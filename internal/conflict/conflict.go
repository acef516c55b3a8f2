package conflict

import "orarend/internal/model"

// Conflicts reports whether a and b overlap on the same weekday. Both slots
// are treated as half-open intervals [Start, End), so back-to-back slots do
// not conflict.
func Conflicts(a, b model.Slot) bool {
	if a.Day != b.Day {
		return false
	}
	return a.Start < b.End && b.Start < a.End
}

// SlotRef locates a slot inside a course list.
type SlotRef struct {
	CourseID  string     `json:"course_id"`
	ClassCode string     `json:"class_code"`
	SlotIndex int        `json:"slot_index"`
	Slot      model.Slot `json:"slot"`
}

// Conflict is one overlapping pair. A always precedes B in input order.
type Conflict struct {
	A SlotRef `json:"a"`
	B SlotRef `json:"b"`
}

// Find returns every pair of overlapping slots across courses, including
// pairs within the same course. Pairs are ordered by the position of A and
// then B in the flattened input.
func Find(courses []model.Course) []Conflict {
	var refs []SlotRef
	for _, c := range courses {
		for i, s := range c.Slots {
			refs = append(refs, SlotRef{CourseID: c.ID, ClassCode: c.ClassCode, SlotIndex: i, Slot: s})
		}
	}

	out := []Conflict{}
	for i := 0; i < len(refs); i++ {
		for j := i + 1; j < len(refs); j++ {
			if Conflicts(refs[i].Slot, refs[j].Slot) {
				out = append(out, Conflict{A: refs[i], B: refs[j]})
			}
		}
	}
	return out
}

// ForCourse returns the conflicts of course c against others. Slots of c are
// not compared with each other, and entries of others with c's ID are skipped.
func ForCourse(c model.Course, others []model.Course) []Conflict {
	out := []Conflict{}
	for i, s := range c.Slots {
		a := SlotRef{CourseID: c.ID, ClassCode: c.ClassCode, SlotIndex: i, Slot: s}
		for _, o := range others {
			if o.ID == c.ID {
				continue
			}
			for j, s2 := range o.Slots {
				if Conflicts(s, s2) {
					out = append(out, Conflict{A: a, B: SlotRef{CourseID: o.ID, ClassCode: o.ClassCode, SlotIndex: j, Slot: s2}})
				}
			}
		}
	}
	return out
}
