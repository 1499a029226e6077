package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/crcportal/api/internal/database"
	"github.com/crcportal/api/internal/model"
)

// Factory creates test entities in the database
type Factory struct {
	db database.Database
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{db: db}
}

func randomID() string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (f *Factory) createID(t *testing.T, query string, vars map[string]interface{}) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := f.db.QueryOne(ctx, query, vars)
	if err != nil {
		t.Fatalf("fixtures: create failed: %v\nQuery: %s", err, query)
	}
	id, ok := result.(string)
	if !ok || id == "" {
		t.Fatalf("fixtures: unexpected create result %#v", result)
	}
	return id
}

// ============================================================================
// Class Fixtures
// ============================================================================

// ClassOpts customizes class creation
type ClassOpts struct {
	Name        string
	Level       model.GradeLevel
	Description string
}

// CreateClass creates a CRC class
func (f *Factory) CreateClass(t *testing.T, opts ...func(*ClassOpts)) *model.Class {
	t.Helper()

	o := &ClassOpts{
		Name:        fmt.Sprintf("CRC %s", randomID()),
		Level:       model.GradeJunior,
		Description: "Test class",
	}
	for _, fn := range opts {
		fn(o)
	}

	id := f.createID(t, `
		CREATE crc_class CONTENT {
			name: $name,
			level: $level,
			description: $description
		} RETURN VALUE <string> id
	`, map[string]interface{}{
		"name":        o.Name,
		"level":       string(o.Level),
		"description": o.Description,
	})

	return &model.Class{ID: id, Name: o.Name, Level: o.Level, Description: o.Description}
}

// ============================================================================
// Student Fixtures
// ============================================================================

// StudentOpts customizes student creation
type StudentOpts struct {
	FirstName string
	LastName  string
	Grade     model.GradeLevel
	ClassID   *string
}

// InClass places the new student in a class.
func InClass(classID string) func(*StudentOpts) {
	return func(o *StudentOpts) {
		o.ClassID = &classID
	}
}

// CreateStudent creates a student, unassigned unless InClass is given
func (f *Factory) CreateStudent(t *testing.T, opts ...func(*StudentOpts)) *model.Student {
	t.Helper()

	o := &StudentOpts{
		FirstName: "Student",
		LastName:  randomID(),
		Grade:     model.GradeJunior,
	}
	for _, fn := range opts {
		fn(o)
	}

	var class interface{}
	if o.ClassID != nil {
		class = *o.ClassID
	}

	id := f.createID(t, `
		CREATE student CONTENT {
			first_name: $first_name,
			last_name: $last_name,
			grade: $grade,
			crc_class: IF $class IS NOT NULL THEN type::record($class) ELSE NONE END
		} RETURN VALUE <string> id
	`, map[string]interface{}{
		"first_name": o.FirstName,
		"last_name":  o.LastName,
		"grade":      string(o.Grade),
		"class":      class,
	})

	return &model.Student{
		ID:        id,
		FirstName: o.FirstName,
		LastName:  o.LastName,
		Grade:     o.Grade,
		ClassID:   o.ClassID,
	}
}
