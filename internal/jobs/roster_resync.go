package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/crcportal/api/internal/model"
)

// RosterSyncer refetches the roster from the database.
type RosterSyncer interface {
	Sync(ctx context.Context) (*model.SyncResponse, error)
}

// RosterResync periodically refetches the roster so that changes made
// outside this process (imports, manual edits) replace the cached state.
// A failed sync leaves the previous state in place.
type RosterResync struct {
	roster   RosterSyncer
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewRosterResync creates a new roster resync job
func NewRosterResync(roster RosterSyncer, interval time.Duration) *RosterResync {
	if interval == 0 {
		interval = 5 * time.Minute
	}
	return &RosterResync{
		roster:   roster,
		interval: interval,
		timeout:  time.Minute,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the resync loop. The first sync happens after one interval;
// the server performs the initial sync itself.
func (j *RosterResync) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	j.wg.Add(1)
	go j.run()
	slog.Info("roster resync started", slog.Duration("interval", j.interval))
}

// Stop gracefully stops the resync loop
func (j *RosterResync) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	close(j.stopCh)
	j.wg.Wait()
	slog.Info("roster resync stopped")
}

func (j *RosterResync) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.resync()
		case <-j.stopCh:
			return
		}
	}
}

func (j *RosterResync) resync() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	resp, err := j.RunOnce(ctx)
	if err != nil {
		slog.Warn("roster resync failed", slog.String("error", err.Error()))
		return
	}
	slog.Debug("roster resynced",
		slog.Int("students", resp.Students),
		slog.String("version", resp.Version),
	)
}

// RunOnce syncs the roster once (for testing or manual trigger)
func (j *RosterResync) RunOnce(ctx context.Context) (*model.SyncResponse, error) {
	return j.roster.Sync(ctx)
}

// IsRunning returns whether the job is running
func (j *RosterResync) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}
