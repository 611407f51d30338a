// Package roster computes who can still join a batch and tracks the students picked to add.
package roster

import (
	"github.com/ssacademy/backoffice/core/batch"
	"github.com/ssacademy/backoffice/core/student"
)

// AvailableStudents returns all minus the batch members, keeping the order of all.
// Recompute it whenever either list changes.
func AvailableStudents(all []student.Student, members []batch.Member) []student.Student {
	inBatch := make(map[int]bool, len(members))
	for _, m := range members {
		inBatch[m.ID] = true
	}
	available := make([]student.Student, 0, len(all))
	for _, st := range all {
		if !inBatch[st.ID] {
			available = append(available, st)
		}
	}
	return available
}

// Selection is an ordered set of student ids, kept in the order they were picked.
type Selection struct {
	ids []int
}

func (s *Selection) Has(id int) bool {
	for _, x := range s.ids {
		if x == id {
			return true
		}
	}
	return false
}

// Toggle adds id if absent and removes it otherwise.
func (s *Selection) Toggle(id int) {
	for i, x := range s.ids {
		if x == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return
		}
	}
	s.ids = append(s.ids, id)
}

// SelectAll picks every available student not picked yet.
func (s *Selection) SelectAll(available []student.Student) {
	for _, st := range available {
		if !s.Has(st.ID) {
			s.ids = append(s.ids, st.ID)
		}
	}
}

func (s *Selection) Clear() { s.ids = nil }

func (s *Selection) Len() int { return len(s.ids) }

func (s *Selection) IDs() []int {
	return append([]int(nil), s.ids...)
}
