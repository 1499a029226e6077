package model

import "time"

// GradeLevel is the academic year a student is in, and the level a class is
// aimed at.
type GradeLevel string

const (
	GradeFreshman  GradeLevel = "freshman"
	GradeSophomore GradeLevel = "sophomore"
	GradeJunior    GradeLevel = "junior"
	GradeSenior    GradeLevel = "senior"
)

// GradeLevels lists every level in ascending order.
var GradeLevels = []GradeLevel{GradeFreshman, GradeSophomore, GradeJunior, GradeSenior}

// IsValid returns true if the level is a known grade level
func (g GradeLevel) IsValid() bool {
	return g.Rank() > 0
}

// Rank orders grade levels from freshman (1) to senior (4). Unknown levels
// rank 0.
func (g GradeLevel) Rank() int {
	switch g {
	case GradeFreshman:
		return 1
	case GradeSophomore:
		return 2
	case GradeJunior:
		return 3
	case GradeSenior:
		return 4
	default:
		return 0
	}
}

// Class is a CRC class. Membership lives on the students; MemberCount is
// derived from the roster when the class is read.
type Class struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Level       GradeLevel `json:"level"`
	Description string     `json:"description,omitempty"`
	MemberCount int        `json:"member_count"`
	CreatedOn   time.Time  `json:"created_on"`
	UpdatedOn   time.Time  `json:"updated_on"`
}

// Business constraints
const (
	MaxClassNameLength = 100
	MaxClassDescLength = 500
)

// CreateClassRequest represents a request to create a class
type CreateClassRequest struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Level       string `json:"level" validate:"required,grade_level"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

// Validate checks the request fields.
func (r *CreateClassRequest) Validate() []FieldError {
	return validateStruct(r)
}

// UpdateClassRequest represents a request to update a class
type UpdateClassRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,notblank,max=100"`
	Level       *string `json:"level,omitempty" validate:"omitempty,grade_level"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// Validate checks the request fields.
func (r *UpdateClassRequest) Validate() []FieldError {
	return validateStruct(r)
}

// IsEmpty reports whether the update carries no fields.
func (r *UpdateClassRequest) IsEmpty() bool {
	return r.Name == nil && r.Level == nil && r.Description == nil
}
