package model

import (
	"strings"
	"time"
)

// Student is a person enrolled with the readiness center. ClassID is the
// single class reference; nil means unassigned.
type Student struct {
	ID        string     `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email,omitempty"`
	Grade     GradeLevel `json:"grade"`
	Major     string     `json:"major,omitempty"`
	ClassID   *string    `json:"class_id"`
	CreatedOn time.Time  `json:"created_on"`
	UpdatedOn time.Time  `json:"updated_on"`
}

// FullName returns "First Last".
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// InClass reports whether the student currently references classID.
func (s Student) InClass(classID string) bool {
	return s.ClassID != nil && *s.ClassID == classID
}

// Clone returns a copy that shares no pointers with s.
func (s Student) Clone() Student {
	if s.ClassID != nil {
		id := *s.ClassID
		s.ClassID = &id
	}
	return s
}

// Business constraints
const (
	MaxStudentNameLength  = 100
	MaxStudentMajorLength = 120
	MaxStudentsPerChange  = 500
)

// CreateStudentRequest represents a request to create a student.
// New students are always created unassigned; class membership goes through
// the roster endpoints.
type CreateStudentRequest struct {
	FirstName string `json:"first_name" validate:"notblank,max=100"`
	LastName  string `json:"last_name" validate:"notblank,max=100"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Grade     string `json:"grade" validate:"required,grade_level"`
	Major     string `json:"major,omitempty" validate:"max=120"`
}

// Validate checks the request fields.
func (r *CreateStudentRequest) Validate() []FieldError {
	return validateStruct(r)
}

// UpdateStudentRequest represents a partial update of student attributes.
type UpdateStudentRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,notblank,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,notblank,max=100"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Grade     *string `json:"grade,omitempty" validate:"omitempty,grade_level"`
	Major     *string `json:"major,omitempty" validate:"omitempty,max=120"`
}

// Validate checks the request fields.
func (r *UpdateStudentRequest) Validate() []FieldError {
	return validateStruct(r)
}

// IsEmpty reports whether the update carries no fields.
func (r *UpdateStudentRequest) IsEmpty() bool {
	return r.FirstName == nil && r.LastName == nil && r.Email == nil && r.Grade == nil && r.Major == nil
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	ClassID      string
	Unassigned   bool
	ExcludeClass string
}
