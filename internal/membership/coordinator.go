package membership

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/crcportal/api/internal/model"
)

// State is a step of a membership mutation.
type State int

const (
	StateIdle State = iota
	StateConflictCheck
	StateAwaitingResolution
	StateApplying
	StateCommitted
	StateRollingBack
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConflictCheck:
		return "conflict_check"
	case StateAwaitingResolution:
		return "awaiting_resolution"
	case StateApplying:
		return "applying"
	case StateCommitted:
		return "committed"
	case StateRollingBack:
		return "rolling_back"
	default:
		return "unknown"
	}
}

// Resolution is how a submitted change ended.
type Resolution string

const (
	ResolutionCommitted  Resolution = "committed"
	ResolutionRolledBack Resolution = "rolled_back"
	ResolutionConflicted Resolution = "conflicted"
)

// Change adds and removes students from one class. It is persisted as a
// single call.
type Change struct {
	ClassID string
	Add     []string
	Remove  []string
}

// Persister writes a change to the system of record.
type Persister interface {
	PersistMembership(ctx context.Context, change Change) error
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(ctx context.Context, change Change) error

// PersistMembership implements Persister.
func (f PersisterFunc) PersistMembership(ctx context.Context, change Change) error {
	return f(ctx, change)
}

// Transition is reported to the Observer on every state change.
type Transition struct {
	MutationID string
	From       State
	To         State
	Change     Change
	Err        error
	At         time.Time
}

// Observer receives state transitions. It is called synchronously with the
// mutation lock held and must not call back into the Coordinator.
type Observer interface {
	OnTransition(t Transition)
}

// Observers fans a transition out to several observers.
type Observers []Observer

// OnTransition implements Observer.
func (o Observers) OnTransition(t Transition) {
	for _, obs := range o {
		obs.OnTransition(t)
	}
}

// Outcome describes a resolved change.
type Outcome struct {
	MutationID string
	Resolution Resolution
	// Change is what was applied after trimming and filtering.
	Change Change
	// Excluded holds conflicting students dropped by ExcludeConflicts.
	Excluded []string
	// Version is the roster version after resolution.
	Version string
	Reason  error
}

// Options tune a single Apply call.
type Options struct {
	// ExcludeConflicts drops conflicting students from the add set instead
	// of failing with a ConflictError.
	ExcludeConflicts bool
	// ExpectedVersion, when set, must match the roster version at the time
	// the change is applied.
	ExpectedVersion string
}

// DefaultPersistTimeout bounds a persistence call once the optimistic
// change is visible.
const DefaultPersistTimeout = 15 * time.Second

// Coordinator runs membership changes: conflict check, optimistic apply,
// persist, and rollback on failure. Changes are serialized; readers of the
// Store are never blocked.
type Coordinator struct {
	store     *Store
	detector  *Detector
	persister Persister
	observer  Observer
	timeout   time.Duration
	sem       chan struct{}
	now       func() time.Time
}

// CoordinatorConfig holds configuration for the coordinator.
type CoordinatorConfig struct {
	Store     *Store
	Detector  *Detector
	Persister Persister
	Observer  Observer
	// PersistTimeout bounds the persister call; zero means DefaultPersistTimeout.
	PersistTimeout time.Duration
}

// NewCoordinator creates a new coordinator.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	timeout := cfg.PersistTimeout
	if timeout <= 0 {
		timeout = DefaultPersistTimeout
	}
	return &Coordinator{
		store:     cfg.Store,
		detector:  cfg.Detector,
		persister: cfg.Persister,
		observer:  cfg.Observer,
		timeout:   timeout,
		sem:       make(chan struct{}, 1),
		now:       time.Now,
	}
}

// Assign adds students to a class.
func (c *Coordinator) Assign(ctx context.Context, ids []string, classID string, opts Options) (Outcome, error) {
	return c.Apply(ctx, Change{ClassID: classID, Add: ids}, opts)
}

// Remove takes students out of a class. It never conflicts, and students
// not currently in the class are left alone.
func (c *Coordinator) Remove(ctx context.Context, ids []string, classID string, opts Options) (Outcome, error) {
	return c.Apply(ctx, Change{ClassID: classID, Remove: ids}, opts)
}

// Apply runs a combined add/remove change.
//
// Errors: *ValidationError (nothing touched), *ConflictError (nothing
// touched), ErrStaleVersion (nothing touched), *RemoteError (applied, then
// rolled back), or ctx.Err() if the caller gave up while waiting for an
// earlier change.
func (c *Coordinator) Apply(ctx context.Context, change Change, opts Options) (Outcome, error) {
	change, verr := c.normalize(change)
	if verr != nil {
		return Outcome{}, verr
	}

	if err := c.acquire(ctx); err != nil {
		return Outcome{}, err
	}
	defer c.release()

	m := &mutation{id: uuid.New().String(), change: change, state: StateIdle}
	c.transition(m, StateConflictCheck, nil)

	var excluded []string
	if len(change.Add) > 0 {
		conflicts := c.detector.FindConflicts(ctx, change.Add, change.ClassID)
		if len(conflicts) > 0 {
			cerr := &ConflictError{ClassID: change.ClassID, Conflicts: conflicts, Pending: change.Add}
			if !opts.ExcludeConflicts {
				c.transition(m, StateAwaitingResolution, cerr)
				c.transition(m, StateIdle, nil)
				return Outcome{MutationID: m.id, Resolution: ResolutionConflicted, Change: change}, cerr
			}
			excluded = cerr.StudentIDs()
			change.Add = cerr.Without()
			m.change = change
		}
	}

	snap := c.store.Snapshot()
	if opts.ExpectedVersion != "" && opts.ExpectedVersion != snap.Version() {
		c.transition(m, StateIdle, ErrStaleVersion)
		return Outcome{}, ErrStaleVersion
	}

	// Removal only touches students currently in the class.
	change.Remove = c.currentMembers(change.Remove, change.ClassID)
	m.change = change
	if len(change.Add) == 0 && len(change.Remove) == 0 {
		c.transition(m, StateIdle, nil)
		if len(excluded) > 0 {
			return Outcome{}, newValidationError("add_ids", "every selected student belongs to another class")
		}
		// Everything requested is already true.
		return Outcome{
			MutationID: m.id,
			Resolution: ResolutionCommitted,
			Change:     change,
			Version:    snap.Version(),
		}, nil
	}

	c.transition(m, StateApplying, nil)
	classID := change.ClassID
	c.store.SetGroupReference(change.Add, &classID)
	c.store.SetGroupReference(change.Remove, nil)

	// The optimistic state is already visible, so the persist and any
	// rollback run to completion even if the caller goes away.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	err := c.persister.PersistMembership(pctx, change)
	cancel()

	if err != nil {
		c.transition(m, StateRollingBack, err)
		c.store.Restore(snap)
		c.transition(m, StateIdle, nil)
		return Outcome{
			MutationID: m.id,
			Resolution: ResolutionRolledBack,
			Change:     change,
			Excluded:   excluded,
			Version:    c.store.Snapshot().Version(),
			Reason:     err,
		}, &RemoteError{MutationID: m.id, Err: err}
	}

	c.transition(m, StateCommitted, nil)
	c.transition(m, StateIdle, nil)
	return Outcome{
		MutationID: m.id,
		Resolution: ResolutionCommitted,
		Change:     change,
		Excluded:   excluded,
		Version:    c.store.Snapshot().Version(),
	}, nil
}

// CheckConflicts runs detection without changing anything.
func (c *Coordinator) CheckConflicts(ctx context.Context, ids []string, classID string) []model.ConflictEntry {
	return c.detector.FindConflicts(ctx, ids, classID)
}

// Exclusive runs fn while no membership change is in flight. The roster
// resync uses it so a reload never races an optimistic update.
func (c *Coordinator) Exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()
	return fn(ctx)
}

func (c *Coordinator) acquire(ctx context.Context) error {
	select {
	case c.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) release() {
	<-c.sem
}

func (c *Coordinator) normalize(change Change) (Change, *ValidationError) {
	if change.ClassID == "" {
		return change, newValidationError("class_id", "class is required")
	}
	change.Add = dedupe(change.Add)
	change.Remove = dedupe(change.Remove)
	if len(change.Add) == 0 && len(change.Remove) == 0 {
		return change, newValidationError("student_ids", "select at least one student")
	}

	verr := &ValidationError{}
	inAdd := make(map[string]struct{}, len(change.Add))
	for _, id := range change.Add {
		inAdd[id] = struct{}{}
	}
	for _, id := range change.Remove {
		if _, ok := inAdd[id]; ok {
			verr.Fields = append(verr.Fields, model.FieldError{Field: "remove_ids", Message: id + " is also being added"})
		}
	}
	for _, id := range change.Add {
		if _, ok := c.store.Entity(id); !ok {
			verr.Fields = append(verr.Fields, model.FieldError{Field: "add_ids", Message: "unknown student " + id})
		}
	}
	if len(verr.Fields) > 0 {
		return change, verr
	}
	return change, nil
}

func (c *Coordinator) currentMembers(ids []string, classID string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if st, ok := c.store.Entity(id); ok && st.InClass(classID) {
			out = append(out, id)
		}
	}
	return out
}

type mutation struct {
	id     string
	change Change
	state  State
}

func (c *Coordinator) transition(m *mutation, to State, err error) {
	from := m.state
	m.state = to
	if c.observer == nil {
		return
	}
	c.observer.OnTransition(Transition{
		MutationID: m.id,
		From:       from,
		To:         to,
		Change:     m.change,
		Err:        err,
		At:         c.now(),
	})
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
