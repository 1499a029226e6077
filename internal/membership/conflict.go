package membership

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/crcportal/api/internal/model"
)

// NameLookup resolves a class id to its display name.
type NameLookup interface {
	GroupName(ctx context.Context, classID string) (string, error)
}

// NameLookupFunc adapts a function to NameLookup.
type NameLookupFunc func(ctx context.Context, classID string) (string, error)

// GroupName implements NameLookup.
func (f NameLookupFunc) GroupName(ctx context.Context, classID string) (string, error) {
	return f(ctx, classID)
}

// DefaultLookupConcurrency bounds parallel name lookups per detection.
const DefaultLookupConcurrency = 4

// DefaultLookupTimeout bounds a single shared name lookup.
const DefaultLookupTimeout = 5 * time.Second

// Detector finds students that would move from one class to another if
// added to a target class.
type Detector struct {
	store  *Store
	lookup NameLookup
	limit   int
	timeout time.Duration
	flight  singleflight.Group
}

// DetectorConfig holds configuration for the detector.
type DetectorConfig struct {
	Store  *Store
	Lookup NameLookup
	// Concurrency bounds parallel lookups; zero means DefaultLookupConcurrency.
	Concurrency int
	// Timeout bounds each lookup; zero means DefaultLookupTimeout.
	Timeout time.Duration
}

// NewDetector creates a new detector.
func NewDetector(cfg DetectorConfig) *Detector {
	limit := cfg.Concurrency
	if limit <= 0 {
		limit = DefaultLookupConcurrency
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &Detector{
		store:   cfg.Store,
		lookup:  cfg.Lookup,
		limit:   limit,
		timeout: timeout,
	}
}

// FindConflicts returns one entry per candidate that currently references a
// class other than targetClassID, in candidate order. Unknown and duplicate
// ids are skipped. Each distinct conflicting class is looked up once;
// lookup failures fall back to model.UnknownClassName and never fail the
// detection.
func (d *Detector) FindConflicts(ctx context.Context, candidateIDs []string, targetClassID string) []model.ConflictEntry {
	conflicts := make([]model.ConflictEntry, 0)
	seen := make(map[string]struct{}, len(candidateIDs))
	classes := make(map[string]string)

	for _, id := range candidateIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		st, ok := d.store.Entity(id)
		if !ok || st.ClassID == nil || *st.ClassID == targetClassID {
			continue
		}
		conflicts = append(conflicts, model.ConflictEntry{
			StudentID:      st.ID,
			StudentName:    st.FullName(),
			CurrentClassID: *st.ClassID,
		})
		classes[*st.ClassID] = ""
	}

	if len(conflicts) == 0 {
		return conflicts
	}

	d.resolveNames(ctx, classes)
	for i := range conflicts {
		conflicts[i].CurrentClassName = classes[conflicts[i].CurrentClassID]
	}
	return conflicts
}

func (d *Detector) resolveNames(ctx context.Context, classes map[string]string) {
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(d.limit)

	ids := make([]string, 0, len(classes))
	for id := range classes {
		ids = append(ids, id)
	}
	for _, classID := range ids {
		g.Go(func() error {
			name := d.groupName(ctx, classID)
			mu.Lock()
			classes[classID] = name
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

// groupName shares in-flight lookups for the same class across concurrent
// detections.
func (d *Detector) groupName(ctx context.Context, classID string) string {
	if d.lookup == nil {
		return model.UnknownClassName
	}
	// The shared lookup outlives the caller that started it; each caller
	// stops waiting on its own ctx.
	ch := d.flight.DoChan(classID, func() (interface{}, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		return d.lookup.GroupName(lctx, classID)
	})

	var (
		v   interface{}
		err error
	)
	select {
	case res := <-ch:
		v, err = res.Val, res.Err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		slog.Warn("class name lookup failed",
			slog.String("class_id", classID),
			slog.String("error", err.Error()),
		)
		return model.UnknownClassName
	}
	name, _ := v.(string)
	if name == "" {
		return model.UnknownClassName
	}
	return name
}
