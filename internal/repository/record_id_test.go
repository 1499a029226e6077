package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/crcportal/api/internal/database"
	"github.com/crcportal/api/internal/membership"
	"github.com/crcportal/api/internal/model"
)

// recordingDB fails the test on any query.
type recordingDB struct {
	t *testing.T
}

func (d recordingDB) Connect(ctx context.Context) error { return nil }
func (d recordingDB) Close() error                      { return nil }
func (d recordingDB) Ping(ctx context.Context) error    { return nil }

func (d recordingDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	d.t.Errorf("unexpected query: %s %v", query, vars)
	return nil, nil
}

func (d recordingDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	d.t.Errorf("unexpected query: %s %v", query, vars)
	return nil, database.ErrNotFound
}

func (d recordingDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	d.t.Errorf("unexpected query: %s %v", query, vars)
	return nil
}

func TestInTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id    string
		table string
		want  bool
	}{
		{"crc_class:abc", classTable, true},
		{"student:abc", studentTable, true},
		{"student:abc", classTable, false},
		{"crc_class:abc", studentTable, false},
		{"crc_class:", classTable, false},
		{"abc", classTable, false},
		{"", classTable, false},
	}

	for _, tt := range tests {
		if got := inTable(tt.id, tt.table); got != tt.want {
			t.Errorf("inTable(%q, %q) = %v, want %v", tt.id, tt.table, got, tt.want)
		}
	}
}

func TestClassRepository_RejectsOtherTables(t *testing.T) {
	t.Parallel()
	repo := NewClassRepository(recordingDB{t: t})
	ctx := context.Background()

	class, err := repo.GetByID(ctx, "student:abc")
	if err != nil || class != nil {
		t.Errorf("expected not found, got %+v, %v", class, err)
	}
	if err := repo.Delete(ctx, "student:abc"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound from Delete, got %v", err)
	}
	if err := repo.Update(ctx, &model.Class{ID: "student:abc", Name: "x"}); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound from Update, got %v", err)
	}
	if _, err := repo.GroupName(ctx, "student:abc"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound from GroupName, got %v", err)
	}
}

func TestStudentRepository_RejectsOtherTables(t *testing.T) {
	t.Parallel()
	repo := NewStudentRepository(recordingDB{t: t})
	ctx := context.Background()

	st, err := repo.GetByID(ctx, "crc_class:abc")
	if err != nil || st != nil {
		t.Errorf("expected not found, got %+v, %v", st, err)
	}
	if err := repo.Delete(ctx, "crc_class:abc"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound from Delete, got %v", err)
	}
	if err := repo.Update(ctx, &model.Student{ID: "crc_class:abc"}); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound from Update, got %v", err)
	}
}

func TestStudentRepository_PersistMembership_RejectsOtherTables(t *testing.T) {
	t.Parallel()
	repo := NewStudentRepository(recordingDB{t: t})
	ctx := context.Background()

	changes := []membership.Change{
		{ClassID: "student:x", Add: []string{"student:a"}},
		{ClassID: "crc_class:x", Add: []string{"crc_class:y"}},
		{ClassID: "crc_class:x", Remove: []string{"crc_class:y"}},
	}
	for _, change := range changes {
		if err := repo.PersistMembership(ctx, change); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("%+v: expected ErrNotFound, got %v", change, err)
		}
	}
}
