package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/crcportal/api/internal/database"
	"github.com/crcportal/api/internal/model"
)

// ClassRepository handles CRC class data access
type ClassRepository struct {
	db database.Database
}

// NewClassRepository creates a new class repository
func NewClassRepository(db database.Database) *ClassRepository {
	return &ClassRepository{db: db}
}

// Create creates a new class
func (r *ClassRepository) Create(ctx context.Context, class *model.Class) error {
	query := `
		CREATE crc_class CONTENT {
			name: $name,
			level: $level,
			description: IF $description IS NOT NULL THEN $description ELSE NONE END,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"name":        class.Name,
		"level":       string(class.Level),
		"description": nilIfEmpty(class.Description),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return fmt.Errorf("%w: class name already exists", database.ErrDuplicate)
		}
		return err
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}

	class.ID = created.ID
	class.CreatedOn = created.CreatedOn
	class.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a class by ID. Returns nil when it does not exist.
func (r *ClassRepository) GetByID(ctx context.Context, id string) (*model.Class, error) {
	if !inTable(id, classTable) {
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
	return parseClass(result)
}

// List returns every class
func (r *ClassRepository) List(ctx context.Context) ([]model.Class, error) {
	query := `SELECT * FROM crc_class ORDER BY name`

	results, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	records := database.Records(results, 0)
	classes := make([]model.Class, 0, len(records))
	for _, rec := range records {
		c, err := parseClass(rec)
		if err != nil {
			return nil, err
		}
		classes = append(classes, *c)
	}
	return classes, nil
}

// Update updates a class
func (r *ClassRepository) Update(ctx context.Context, class *model.Class) error {
	if !inTable(class.ID, classTable) {
		return database.ErrNotFound
	}
	query := `
		UPDATE type::record($id) SET
			name = $name,
			level = $level,
			description = IF $description IS NOT NULL THEN $description ELSE NONE END,
			updated_on = time::now()
	`
	vars := map[string]interface{}{
		"id":          class.ID,
		"name":        class.Name,
		"level":       string(class.Level),
		"description": nilIfEmpty(class.Description),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return fmt.Errorf("%w: class name already exists", database.ErrDuplicate)
		}
		return err
	}
	if rec, err := database.FirstRecord(result); err == nil {
		if data, ok := rec.(map[string]interface{}); ok {
			class.UpdatedOn = timeOrZero(data, "updated_on")
		}
	}
	return nil
}

// Delete deletes a class and clears any student still pointing at it.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	if !inTable(id, classTable) {
		return database.ErrNotFound
	}
	vars := map[string]interface{}{"id": id}
	return database.NewAtomicBatch().
		Add(`UPDATE student SET crc_class = NONE WHERE crc_class = type::record($id)`, vars).
		Add(`DELETE type::record($id)`, vars).
		Execute(ctx, r.db)
}

// GroupName returns the display name of a class.
func (r *ClassRepository) GroupName(ctx context.Context, classID string) (string, error) {
	if !inTable(classID, classTable) {
		return "", database.ErrNotFound
	}
	query := `SELECT VALUE name FROM ONLY type::record($id)`

	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"id": classID})
	if err != nil {
		return "", err
	}
	name, ok := result.(string)
	if !ok || name == "" {
		return "", database.ErrNotFound
	}
	return name, nil
}

func parseClass(result interface{}) (*model.Class, error) {
	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected result format")
	}

	return &model.Class{
		ID:          convertSurrealID(data["id"]),
		Name:        getString(data, "name"),
		Level:       model.GradeLevel(getString(data, "level")),
		Description: getString(data, "description"),
		CreatedOn:   timeOrZero(data, "created_on"),
		UpdatedOn:   timeOrZero(data, "updated_on"),
	}, nil
}
