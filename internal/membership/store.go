package membership

import (
	"sort"
	"strings"
	"sync"

	"github.com/crcportal/api/internal/model"
)

// Store is the in-process roster view: every student and its single class
// reference. Reads return copies and never block on an in-flight mutation
// for longer than a map copy. Writes are limited to the Coordinator and the
// resync path.
type Store struct {
	mu       sync.RWMutex
	students map[string]*model.Student
	order    []string
}

// NewStore creates a store holding the given students.
func NewStore(students ...model.Student) *Store {
	s := &Store{students: make(map[string]*model.Student)}
	s.Load(students)
	return s
}

// Load replaces the whole view, typically with a fresh read from the
// database.
func (s *Store) Load(students []model.Student) {
	next := make(map[string]*model.Student, len(students))
	for _, st := range students {
		c := st.Clone()
		next[c.ID] = &c
	}

	s.mu.Lock()
	s.students = next
	s.reorder()
	s.mu.Unlock()
}

// Entities returns every student ordered by last name, first name, id.
func (s *Store) Entities() []model.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Student, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.students[id].Clone())
	}
	return out
}

// Unassigned returns students with no class. Students referencing one of
// the excluded classes are left out too, so a candidate list shown next to a
// class never repeats its members.
func (s *Store) Unassigned(excluding ...string) []model.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Student, 0)
	for _, id := range s.order {
		st := s.students[id]
		if st.ClassID != nil || referencesAny(*st, excluding) {
			continue
		}
		out = append(out, st.Clone())
	}
	return out
}

// Members returns the students referencing classID.
func (s *Store) Members(classID string) []model.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Student, 0)
	for _, id := range s.order {
		st := s.students[id]
		if st.InClass(classID) {
			out = append(out, st.Clone())
		}
	}
	return out
}

// MemberCount returns how many students reference classID.
func (s *Store) MemberCount(classID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, st := range s.students {
		if st.InClass(classID) {
			n++
		}
	}
	return n
}

// MemberCounts returns the member count of every referenced class.
func (s *Store) MemberCounts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, st := range s.students {
		if st.ClassID != nil {
			counts[*st.ClassID]++
		}
	}
	return counts
}

// Entity returns one student.
func (s *Store) Entity(id string) (model.Student, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.students[id]
	if !ok {
		return model.Student{}, false
	}
	return st.Clone(), true
}

// Len returns the number of students in the view.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.students)
}

// SetGroupReference points every listed student at classID (nil clears it).
// Unknown ids are ignored and repeating the call is a no-op.
func (s *Store) SetGroupReference(ids []string, classID *string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		st, ok := s.students[id]
		if !ok {
			continue
		}
		if classID == nil {
			st.ClassID = nil
			continue
		}
		ref := *classID
		st.ClassID = &ref
	}
}

// Upsert inserts or replaces a student's attributes. An existing class
// reference is kept: membership only changes through SetGroupReference.
func (s *Store) Upsert(st model.Student) {
	c := st.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.students[c.ID]; ok {
		c.ClassID = prev.Clone().ClassID
	}
	s.students[c.ID] = &c
	s.reorder()
}

// Delete drops a student from the view.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.students[id]; !ok {
		return
	}
	delete(s.students, id)
	s.reorder()
}

// ClearGroup drops every reference to classID and returns the affected ids.
func (s *Store) ClearGroup(classID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cleared []string
	for id, st := range s.students {
		if st.InClass(classID) {
			st.ClassID = nil
			cleared = append(cleared, id)
		}
	}
	sort.Strings(cleared)
	return cleared
}

// Snapshot captures every student's class reference.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make(map[string]string, len(s.students))
	for id, st := range s.students {
		if st.ClassID != nil {
			refs[id] = *st.ClassID
		} else {
			refs[id] = ""
		}
	}
	return Snapshot{refs: refs}
}

// Restore puts every captured reference back. Students added to the view
// after the snapshot was taken keep their current reference.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, st := range s.students {
		ref, ok := snap.refs[id]
		if !ok {
			continue
		}
		if ref == "" {
			st.ClassID = nil
			continue
		}
		r := ref
		st.ClassID = &r
	}
}

// reorder must be called with mu held for writing.
func (s *Store) reorder() {
	order := make([]string, 0, len(s.students))
	for id := range s.students {
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := s.students[order[i]], s.students[order[j]]
		if c := strings.Compare(strings.ToLower(a.LastName), strings.ToLower(b.LastName)); c != 0 {
			return c < 0
		}
		if c := strings.Compare(strings.ToLower(a.FirstName), strings.ToLower(b.FirstName)); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
	s.order = order
}

func referencesAny(st model.Student, classIDs []string) bool {
	for _, id := range classIDs {
		if st.InClass(id) {
			return true
		}
	}
	return false
}
