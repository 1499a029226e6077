package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/crcportal/api/internal/database"
	"github.com/crcportal/api/internal/model"
)

// RosterView is the part of the roster the class service reads.
type RosterView interface {
	MemberCount(classID string) int
	MemberCounts() map[string]int
	Exclusive(ctx context.Context, fn func(ctx context.Context) error) error
}

// ClassService handles CRC class business logic
type ClassService struct {
	classRepo ClassRepository
	roster    RosterView
}

// ClassServiceConfig holds configuration for the class service
type ClassServiceConfig struct {
	ClassRepo ClassRepository
	Roster    RosterView
}

// NewClassService creates a new class service
func NewClassService(cfg ClassServiceConfig) *ClassService {
	return &ClassService{
		classRepo: cfg.ClassRepo,
		roster:    cfg.Roster,
	}
}

// CreateClass creates a new, empty class
func (s *ClassService) CreateClass(ctx context.Context, req model.CreateClassRequest) (*model.Class, error) {
	class := &model.Class{
		Name:        strings.TrimSpace(req.Name),
		Level:       model.GradeLevel(req.Level),
		Description: strings.TrimSpace(req.Description),
	}

	if err := s.classRepo.Create(ctx, class); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrClassNameExists
		}
		return nil, fmt.Errorf("create class: %w", err)
	}
	return class, nil
}

// GetClass returns a class with its current member count
func (s *ClassService) GetClass(ctx context.Context, id string) (*model.Class, error) {
	class, err := s.classRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get class: %w", err)
	}
	if class == nil {
		return nil, ErrClassNotFound
	}
	class.MemberCount = s.roster.MemberCount(class.ID)
	return class, nil
}

// ListClasses returns every class, lowest grade level first, then by name.
func (s *ClassService) ListClasses(ctx context.Context) ([]model.Class, error) {
	classes, err := s.classRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}

	counts := s.roster.MemberCounts()
	for i := range classes {
		classes[i].MemberCount = counts[classes[i].ID]
	}

	sort.SliceStable(classes, func(i, j int) bool {
		ri, rj := classes[i].Level.Rank(), classes[j].Level.Rank()
		if ri != rj {
			return ri < rj
		}
		return strings.ToLower(classes[i].Name) < strings.ToLower(classes[j].Name)
	})
	return classes, nil
}

// UpdateClass changes class attributes
func (s *ClassService) UpdateClass(ctx context.Context, id string, req model.UpdateClassRequest) (*model.Class, error) {
	if req.IsEmpty() {
		return nil, ErrEmptyUpdate
	}

	class, err := s.GetClass(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		class.Name = strings.TrimSpace(*req.Name)
	}
	if req.Level != nil {
		class.Level = model.GradeLevel(*req.Level)
	}
	if req.Description != nil {
		class.Description = strings.TrimSpace(*req.Description)
	}

	if err := s.classRepo.Update(ctx, class); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrClassNameExists
		}
		return nil, fmt.Errorf("update class: %w", err)
	}
	return class, nil
}

// DeleteClass deletes an empty class. The emptiness check and the delete
// run while no membership change is in flight.
func (s *ClassService) DeleteClass(ctx context.Context, id string) error {
	if _, err := s.GetClass(ctx, id); err != nil {
		return err
	}

	return s.roster.Exclusive(ctx, func(ctx context.Context) error {
		if s.roster.MemberCount(id) > 0 {
			return ErrClassNotEmpty
		}
		if err := s.classRepo.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete class: %w", err)
		}
		return nil
	})
}
