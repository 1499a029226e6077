package model

import (
	"strings"
	"testing"
)

func hasFieldError(errs []FieldError, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

// ============================================================================
// CreateStudentRequest Tests
// ============================================================================

func TestCreateStudentRequest_Validate_Valid(t *testing.T) {
	t.Parallel()

	req := &CreateStudentRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.edu",
		Grade:     "junior",
		Major:     "Mathematics",
	}

	if errs := req.Validate(); len(errs) > 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestCreateStudentRequest_Validate_BlankName(t *testing.T) {
	t.Parallel()

	req := &CreateStudentRequest{FirstName: "   ", LastName: "Lovelace", Grade: "junior"}

	errs := req.Validate()
	if !hasFieldError(errs, "first_name") {
		t.Errorf("expected first_name error, got %v", errs)
	}
}

func TestCreateStudentRequest_Validate_InvalidGrade(t *testing.T) {
	t.Parallel()

	req := &CreateStudentRequest{FirstName: "Ada", LastName: "Lovelace", Grade: "postgrad"}

	errs := req.Validate()
	found := false
	for _, e := range errs {
		if e.Field == "grade" && strings.Contains(e.Message, "freshman") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected grade validation error, got %v", errs)
	}
}

func TestCreateStudentRequest_Validate_InvalidEmail(t *testing.T) {
	t.Parallel()

	req := &CreateStudentRequest{FirstName: "Ada", LastName: "Lovelace", Grade: "senior", Email: "nope"}

	if errs := req.Validate(); !hasFieldError(errs, "email") {
		t.Errorf("expected email error, got %v", errs)
	}
}

// ============================================================================
// UpdateStudentRequest Tests
// ============================================================================

func TestUpdateStudentRequest_Validate_EmptyPointerIsBlank(t *testing.T) {
	t.Parallel()

	blank := ""
	req := &UpdateStudentRequest{LastName: &blank}

	if errs := req.Validate(); !hasFieldError(errs, "last_name") {
		t.Errorf("expected last_name error, got %v", errs)
	}
}

func TestUpdateStudentRequest_IsEmpty(t *testing.T) {
	t.Parallel()

	if !(&UpdateStudentRequest{}).IsEmpty() {
		t.Error("expected empty update to report IsEmpty")
	}
	major := "History"
	if (&UpdateStudentRequest{Major: &major}).IsEmpty() {
		t.Error("expected update with major to be non-empty")
	}
}

// ============================================================================
// Class Request Tests
// ============================================================================

func TestCreateClassRequest_Validate_MissingLevel(t *testing.T) {
	t.Parallel()

	req := &CreateClassRequest{Name: "Senior CRC"}

	if errs := req.Validate(); !hasFieldError(errs, "level") {
		t.Errorf("expected level error, got %v", errs)
	}
}

func TestCreateClassRequest_Validate_NameTooLong(t *testing.T) {
	t.Parallel()

	req := &CreateClassRequest{Name: strings.Repeat("x", MaxClassNameLength+1), Level: "senior"}

	if errs := req.Validate(); !hasFieldError(errs, "name") {
		t.Errorf("expected name error, got %v", errs)
	}
}

func TestUpdateClassRequest_Validate_InvalidLevel(t *testing.T) {
	t.Parallel()

	level := "graduate"
	req := &UpdateClassRequest{Level: &level}

	if errs := req.Validate(); !hasFieldError(errs, "level") {
		t.Errorf("expected level error, got %v", errs)
	}
}

// ============================================================================
// Membership Request Tests
// ============================================================================

func TestUpdateMembershipRequest_Validate_EmptySelection(t *testing.T) {
	t.Parallel()

	req := &UpdateMembershipRequest{}

	errs := req.Validate()
	if !hasFieldError(errs, "add_ids") {
		t.Errorf("expected add_ids error, got %v", errs)
	}
}

func TestUpdateMembershipRequest_Validate_RemoveOnly(t *testing.T) {
	t.Parallel()

	req := &UpdateMembershipRequest{RemoveIDs: []string{"student:a"}}

	if errs := req.Validate(); len(errs) > 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestUpdateMembershipRequest_Validate_BadVersion(t *testing.T) {
	t.Parallel()

	req := &UpdateMembershipRequest{AddIDs: []string{"student:a"}, ExpectedVersion: "abc"}

	if errs := req.Validate(); !hasFieldError(errs, "expected_version") {
		t.Errorf("expected expected_version error, got %v", errs)
	}
}

func TestCheckConflictsRequest_Validate_RequiresIDs(t *testing.T) {
	t.Parallel()

	req := &CheckConflictsRequest{}

	if errs := req.Validate(); !hasFieldError(errs, "student_ids") {
		t.Errorf("expected student_ids error, got %v", errs)
	}
}

// ============================================================================
// GradeLevel Tests
// ============================================================================

func TestGradeLevel_Rank(t *testing.T) {
	t.Parallel()

	for i, g := range GradeLevels {
		if g.Rank() != i+1 {
			t.Errorf("expected %s to rank %d, got %d", g, i+1, g.Rank())
		}
	}
	if GradeLevel("unknown").IsValid() {
		t.Error("expected unknown grade to be invalid")
	}
}

func TestStudent_CloneDoesNotShareClassRef(t *testing.T) {
	t.Parallel()

	classID := "crc_class:x"
	s := Student{ID: "student:a", ClassID: &classID}

	c := s.Clone()
	*c.ClassID = "crc_class:y"

	if *s.ClassID != "crc_class:x" {
		t.Errorf("clone mutated original class reference: %s", *s.ClassID)
	}
}
