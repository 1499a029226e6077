package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/crcportal/api/internal/database"
	"github.com/crcportal/api/internal/membership"
	"github.com/crcportal/api/internal/model"
)

// StudentRepository handles student data access and persists class
// membership changes.
type StudentRepository struct {
	db database.Database
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db database.Database) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns every student.
func (r *StudentRepository) List(ctx context.Context) ([]model.Student, error) {
	query := `SELECT * FROM student ORDER BY last_name, first_name`

	results, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	records := database.Records(results, 0)
	students := make([]model.Student, 0, len(records))
	for _, rec := range records {
		st, err := parseStudent(rec)
		if err != nil {
			return nil, err
		}
		students = append(students, *st)
	}
	return students, nil
}

// GetByID retrieves a student by ID. Returns nil when it does not exist.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*model.Student, error) {
	if !inTable(id, studentTable) {
		return nil, nil
	}
	query := `SELECT * FROM type::record($id)`
	vars := map[string]interface{}{"id": id}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseStudent(result)
}

// Create creates a new, unassigned student
func (r *StudentRepository) Create(ctx context.Context, st *model.Student) error {
	query := `
		CREATE student CONTENT {
			first_name: $first_name,
			last_name: $last_name,
			email: IF $email IS NOT NULL THEN $email ELSE NONE END,
			grade: $grade,
			major: IF $major IS NOT NULL THEN $major ELSE NONE END,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"first_name": st.FirstName,
		"last_name":  st.LastName,
		"email":      nilIfEmpty(st.Email),
		"grade":      string(st.Grade),
		"major":      nilIfEmpty(st.Major),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}

	st.ID = created.ID
	st.ClassID = nil
	st.CreatedOn = created.CreatedOn
	st.UpdatedOn = created.UpdatedOn
	return nil
}

// Update writes a student's attributes. The class reference is not touched;
// it only changes through PersistMembership.
func (r *StudentRepository) Update(ctx context.Context, st *model.Student) error {
	if !inTable(st.ID, studentTable) {
		return database.ErrNotFound
	}
	query := `
		UPDATE type::record($id) SET
			first_name = $first_name,
			last_name = $last_name,
			email = IF $email IS NOT NULL THEN $email ELSE NONE END,
			grade = $grade,
			major = IF $major IS NOT NULL THEN $major ELSE NONE END,
			updated_on = time::now()
	`
	vars := map[string]interface{}{
		"id":         st.ID,
		"first_name": st.FirstName,
		"last_name":  st.LastName,
		"email":      nilIfEmpty(st.Email),
		"grade":      string(st.Grade),
		"major":      nilIfEmpty(st.Major),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}
	if rec, err := database.FirstRecord(result); err == nil {
		if data, ok := rec.(map[string]interface{}); ok {
			st.UpdatedOn = timeOrZero(data, "updated_on")
		}
	}
	return nil
}

// Delete deletes a student
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	if !inTable(id, studentTable) {
		return database.ErrNotFound
	}
	query := `DELETE type::record($id)`
	return r.db.Execute(ctx, query, map[string]interface{}{"id": id})
}

// PersistMembership writes a membership change as one transaction. An add
// fails the whole batch if the student is gone or already belongs to a
// different class; a removal only clears students still in the class.
func (r *StudentRepository) PersistMembership(ctx context.Context, change membership.Change) error {
	if !inTable(change.ClassID, classTable) {
		return fmt.Errorf("persist membership for %s: %w", change.ClassID, database.ErrNotFound)
	}
	for _, ids := range [][]string{change.Add, change.Remove} {
		for _, id := range ids {
			if !inTable(id, studentTable) {
				return fmt.Errorf("persist membership for %s: student %s: %w", change.ClassID, id, database.ErrNotFound)
			}
		}
	}

	batch := database.NewAtomicBatch()

	for _, id := range change.Add {
		batch.Add(`
			IF !record::exists(type::record($id)) {
				THROW "student " + $id + " does not exist"
			}
		`, map[string]interface{}{"id": id})
		batch.Add(`
			IF (SELECT VALUE crc_class FROM ONLY type::record($id)) NOT IN [NONE, NULL, type::record($class)] {
				THROW "student " + $id + " belongs to another class"
			}
		`, map[string]interface{}{"id": id, "class": change.ClassID})
		batch.Add(`
			UPDATE type::record($id) SET
				crc_class = type::record($class),
				updated_on = time::now()
		`, map[string]interface{}{"id": id, "class": change.ClassID})
	}

	for _, id := range change.Remove {
		batch.Add(`
			UPDATE type::record($id) SET
				crc_class = NONE,
				updated_on = time::now()
			WHERE crc_class = type::record($class)
		`, map[string]interface{}{"id": id, "class": change.ClassID})
	}

	if err := batch.Execute(ctx, r.db); err != nil {
		return fmt.Errorf("persist membership for %s: %w", change.ClassID, err)
	}
	return nil
}

func parseStudent(result interface{}) (*model.Student, error) {
	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected result format")
	}

	return &model.Student{
		ID:        convertSurrealID(data["id"]),
		FirstName: getString(data, "first_name"),
		LastName:  getString(data, "last_name"),
		Email:     getString(data, "email"),
		Grade:     model.GradeLevel(getString(data, "grade")),
		Major:     getString(data, "major"),
		ClassID:   convertSurrealIDPtr(data["crc_class"]),
		CreatedOn: timeOrZero(data, "created_on"),
		UpdatedOn: timeOrZero(data, "updated_on"),
	}, nil
}
