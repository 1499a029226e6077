package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/crcportal/api/internal/membership"
	"github.com/crcportal/api/internal/model"
)

// StudentRepository defines the interface for student storage
type StudentRepository interface {
	List(ctx context.Context) ([]model.Student, error)
	GetByID(ctx context.Context, id string) (*model.Student, error)
	Create(ctx context.Context, st *model.Student) error
	Update(ctx context.Context, st *model.Student) error
	Delete(ctx context.Context, id string) error
	PersistMembership(ctx context.Context, change membership.Change) error
}

// ClassRepository defines the interface for class storage
type ClassRepository interface {
	Create(ctx context.Context, class *model.Class) error
	GetByID(ctx context.Context, id string) (*model.Class, error)
	List(ctx context.Context) ([]model.Class, error)
	Update(ctx context.Context, class *model.Class) error
	Delete(ctx context.Context, id string) error
	GroupName(ctx context.Context, id string) (string, error)
}

// SyncObserver is told about every roster refetch.
type SyncObserver interface {
	ObserveSync(students int, err error)
}

// RosterService owns the in-process roster and runs membership changes
// against it.
type RosterService struct {
	studentRepo StudentRepository
	classRepo   ClassRepository
	store       *membership.Store
	coordinator *membership.Coordinator
	syncObs     SyncObserver
	loaded      atomic.Bool
	lastSync    atomic.Int64
}

// RosterServiceConfig holds configuration for the roster service
type RosterServiceConfig struct {
	StudentRepo StudentRepository
	ClassRepo   ClassRepository
	// Observer receives every membership state transition.
	Observer          membership.Observer
	SyncObserver      SyncObserver
	LookupConcurrency int
	PersistTimeout    time.Duration
}

// NewRosterService creates a new roster service. The roster is empty until
// Sync succeeds.
func NewRosterService(cfg RosterServiceConfig) *RosterService {
	store := membership.NewStore()
	detector := membership.NewDetector(membership.DetectorConfig{
		Store:       store,
		Lookup:      cfg.ClassRepo,
		Concurrency: cfg.LookupConcurrency,
	})
	coordinator := membership.NewCoordinator(membership.CoordinatorConfig{
		Store:          store,
		Detector:       detector,
		Persister:      cfg.StudentRepo,
		Observer:       cfg.Observer,
		PersistTimeout: cfg.PersistTimeout,
	})

	return &RosterService{
		studentRepo: cfg.StudentRepo,
		classRepo:   cfg.ClassRepo,
		store:       store,
		coordinator: coordinator,
		syncObs:     cfg.SyncObserver,
	}
}

// Sync reloads every student from the system of record. It waits for any
// in-flight membership change to resolve first.
func (s *RosterService) Sync(ctx context.Context) (*model.SyncResponse, error) {
	var count int
	err := s.coordinator.Exclusive(ctx, func(ctx context.Context) error {
		students, err := s.studentRepo.List(ctx)
		if err != nil {
			return err
		}
		s.store.Load(students)
		count = len(students)
		return nil
	})
	if s.syncObs != nil {
		s.syncObs.ObserveSync(count, err)
	}
	if err != nil {
		return nil, fmt.Errorf("sync roster: %w", err)
	}

	s.loaded.Store(true)
	s.lastSync.Store(time.Now().Unix())
	return &model.SyncResponse{
		Students: count,
		Version:  s.store.Snapshot().Version(),
	}, nil
}

// Ready reports whether the roster has been loaded at least once.
func (s *RosterService) Ready() bool {
	return s.loaded.Load()
}

// LastSync returns when the roster was last loaded, or the zero time.
func (s *RosterService) LastSync() time.Time {
	ts := s.lastSync.Load()
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0)
}

// Version returns the current roster version.
func (s *RosterService) Version() string {
	return s.store.Snapshot().Version()
}

// MemberCount returns the number of students in a class.
func (s *RosterService) MemberCount(classID string) int {
	return s.store.MemberCount(classID)
}

// MemberCounts returns the number of students per class.
func (s *RosterService) MemberCounts() map[string]int {
	return s.store.MemberCounts()
}

// Exclusive runs fn while no membership change is in flight.
func (s *RosterService) Exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.coordinator.Exclusive(ctx, fn)
}

// ============================================================================
// Students
// ============================================================================

// ListStudents returns students matching the filter, ordered by name.
func (s *RosterService) ListStudents(ctx context.Context, filter model.StudentFilter) ([]model.Student, error) {
	if !s.Ready() {
		return nil, ErrRosterNotReady
	}

	switch {
	case filter.ClassID != "":
		return s.store.Members(filter.ClassID), nil
	case filter.Unassigned:
		if filter.ExcludeClass != "" {
			return s.store.Unassigned(filter.ExcludeClass), nil
		}
		return s.store.Unassigned(), nil
	default:
		return s.store.Entities(), nil
	}
}

// GetStudent returns one student from the roster.
func (s *RosterService) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	if !s.Ready() {
		return nil, ErrRosterNotReady
	}
	st, ok := s.store.Entity(id)
	if !ok {
		return nil, ErrStudentNotFound
	}
	return &st, nil
}

// CreateStudent creates an unassigned student.
func (s *RosterService) CreateStudent(ctx context.Context, req model.CreateStudentRequest) (*model.Student, error) {
	if !s.Ready() {
		return nil, ErrRosterNotReady
	}

	st := &model.Student{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		Grade:     model.GradeLevel(req.Grade),
		Major:     strings.TrimSpace(req.Major),
	}
	if err := s.studentRepo.Create(ctx, st); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	s.store.Upsert(*st)
	return st, nil
}

// UpdateStudent changes student attributes. Class membership is not
// affected.
func (s *RosterService) UpdateStudent(ctx context.Context, id string, req model.UpdateStudentRequest) (*model.Student, error) {
	if req.IsEmpty() {
		return nil, ErrEmptyUpdate
	}
	current, err := s.GetStudent(ctx, id)
	if err != nil {
		return nil, err
	}

	st := current.Clone()
	if req.FirstName != nil {
		st.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		st.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		st.Email = strings.TrimSpace(*req.Email)
	}
	if req.Grade != nil {
		st.Grade = model.GradeLevel(*req.Grade)
	}
	if req.Major != nil {
		st.Major = strings.TrimSpace(*req.Major)
	}

	if err := s.studentRepo.Update(ctx, &st); err != nil {
		return nil, fmt.Errorf("update student: %w", err)
	}
	s.store.Upsert(st)

	// Upsert keeps whatever class the roster holds now.
	updated, _ := s.store.Entity(id)
	return &updated, nil
}

// DeleteStudent removes a student. It waits for in-flight membership
// changes so a rollback cannot resurrect the student's reference.
func (s *RosterService) DeleteStudent(ctx context.Context, id string) error {
	if _, err := s.GetStudent(ctx, id); err != nil {
		return err
	}
	return s.coordinator.Exclusive(ctx, func(ctx context.Context) error {
		if err := s.studentRepo.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete student: %w", err)
		}
		s.store.Delete(id)
		return nil
	})
}

// ============================================================================
// Membership
// ============================================================================

// GetClassRoster returns a class with its members and the roster version.
func (s *RosterService) GetClassRoster(ctx context.Context, classID string) (*model.ClassRoster, error) {
	if !s.Ready() {
		return nil, ErrRosterNotReady
	}
	class, err := s.getClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	return s.buildRoster(*class), nil
}

// ListCandidates returns the students that can be added to a class.
func (s *RosterService) ListCandidates(ctx context.Context, classID string) ([]model.Student, error) {
	if !s.Ready() {
		return nil, ErrRosterNotReady
	}
	if _, err := s.getClass(ctx, classID); err != nil {
		return nil, err
	}
	return s.store.Unassigned(classID), nil
}

// CheckConflicts reports which students would conflict if added to a
// class. Nothing is changed.
func (s *RosterService) CheckConflicts(ctx context.Context, classID string, studentIDs []string) (*model.CheckConflictsResponse, error) {
	if !s.Ready() {
		return nil, ErrRosterNotReady
	}
	if _, err := s.getClass(ctx, classID); err != nil {
		return nil, err
	}
	return &model.CheckConflictsResponse{
		Conflicts: s.coordinator.CheckConflicts(ctx, studentIDs, classID),
	}, nil
}

// AssignStudents adds students to a class.
func (s *RosterService) AssignStudents(ctx context.Context, classID string, ids []string, opts membership.Options) (*model.UpdateMembershipResponse, error) {
	return s.apply(ctx, membership.Change{ClassID: classID, Add: ids}, opts)
}

// RemoveStudents takes students out of a class.
func (s *RosterService) RemoveStudents(ctx context.Context, classID string, ids []string, opts membership.Options) (*model.UpdateMembershipResponse, error) {
	return s.apply(ctx, membership.Change{ClassID: classID, Remove: ids}, opts)
}

// UpdateMembership applies a combined add/remove change as one persisted
// write.
//
// Errors: *membership.ValidationError, *membership.ConflictError,
// *membership.RemoteError, ErrRosterStale, ErrClassNotFound.
func (s *RosterService) UpdateMembership(ctx context.Context, classID string, req model.UpdateMembershipRequest) (*model.UpdateMembershipResponse, error) {
	return s.apply(ctx, membership.Change{
		ClassID: classID,
		Add:     req.AddIDs,
		Remove:  req.RemoveIDs,
	}, membership.Options{
		ExcludeConflicts: req.ExcludeConflicts,
		ExpectedVersion:  req.ExpectedVersion,
	})
}

func (s *RosterService) apply(ctx context.Context, change membership.Change, opts membership.Options) (*model.UpdateMembershipResponse, error) {
	if !s.Ready() {
		return nil, ErrRosterNotReady
	}
	class, err := s.getClass(ctx, change.ClassID)
	if err != nil {
		return nil, err
	}

	outcome, err := s.coordinator.Apply(ctx, change, opts)
	if err != nil {
		if errors.Is(err, membership.ErrStaleVersion) {
			return nil, ErrRosterStale
		}
		var remote *membership.RemoteError
		if errors.As(err, &remote) {
			slog.Error("membership change rolled back",
				slog.String("mutation_id", remote.MutationID),
				slog.String("class_id", change.ClassID),
				slog.String("error", remote.Err.Error()),
			)
		}
		return nil, err
	}

	return &model.UpdateMembershipResponse{
		Outcome: toMutationOutcome(outcome),
		Roster:  *s.buildRoster(*class),
	}, nil
}

func (s *RosterService) getClass(ctx context.Context, classID string) (*model.Class, error) {
	class, err := s.classRepo.GetByID(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("get class: %w", err)
	}
	if class == nil {
		return nil, ErrClassNotFound
	}
	return class, nil
}

func (s *RosterService) buildRoster(class model.Class) *model.ClassRoster {
	members := s.store.Members(class.ID)
	class.MemberCount = len(members)
	return &model.ClassRoster{
		Class:   class,
		Members: members,
		Version: s.store.Snapshot().Version(),
	}
}

func toMutationOutcome(o membership.Outcome) model.MutationOutcome {
	return model.MutationOutcome{
		MutationID: o.MutationID,
		State:      string(o.Resolution),
		ClassID:    o.Change.ClassID,
		Added:      nonNil(o.Change.Add),
		Removed:    nonNil(o.Change.Remove),
		Excluded:   o.Excluded,
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
