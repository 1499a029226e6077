package membership

import (
	"encoding/hex"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// Snapshot is an immutable capture of every student's class reference.
// An empty string means unassigned.
type Snapshot struct {
	refs map[string]string
}

// Len returns the number of captured students.
func (s Snapshot) Len() int {
	return len(s.refs)
}

// Ref returns the captured class of a student. ok is false when the student
// was not in the view.
func (s Snapshot) Ref(studentID string) (classID string, ok bool) {
	classID, ok = s.refs[studentID]
	return classID, ok
}

// Version is a BLAKE2b-256 digest of the captured references, stable across
// map iteration order. Two snapshots with the same memberships share a
// version.
func (s Snapshot) Version() string {
	ids := make([]string, 0, len(s.refs))
	for id := range s.refs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	h, _ := blake2b.New256(nil)
	for _, id := range ids {
		_, _ = h.Write([]byte(id))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(s.refs[id]))
		_, _ = h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
