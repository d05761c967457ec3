package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/edgard/sedbot/internal/bot/tasks"
	"github.com/edgard/sedbot/internal/config"
	"github.com/edgard/sedbot/internal/database"
)

type pingStore struct {
	database.Store
	err error
}

func (p pingStore) Ping(context.Context) error { return p.err }

type blockingListener struct {
	started chan struct{}
}

func (l *blockingListener) Start(ctx context.Context) {
	close(l.started)
	<-ctx.Done()
}

type returningListener struct{}

func (returningListener) Start(context.Context) {}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noopTask(context.Context) error { return nil }

func TestSchedulerSkipsDisabledAndUnknownTasks(t *testing.T) {
	t.Parallel()

	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		tasks.HistoryPruneTask:   {Enabled: true, Schedule: "0 */15 * * * *"},
		tasks.SQLMaintenanceTask: {Enabled: false, Schedule: "0 0 4 * * *"},
		"unknown":                {Enabled: true, Schedule: "0 0 * * * *"},
		"bad_schedule":           {Enabled: true, Schedule: "not a cron"},
	}}
	taskMap := map[string]tasks.ScheduledTaskFunc{
		tasks.HistoryPruneTask:   noopTask,
		tasks.SQLMaintenanceTask: noopTask,
		"bad_schedule":           noopTask,
	}

	s, err := NewScheduler(discardLogger(), cfg, taskMap)
	if err != nil {
		t.Fatalf("NewScheduler() unexpected error: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })

	jobs := s.Jobs()
	if len(jobs) != 1 || jobs[0] != tasks.HistoryPruneTask {
		t.Errorf("Jobs() = %v, want [%s]", jobs, tasks.HistoryPruneTask)
	}

	if err := s.Start(); err == nil {
		t.Error("second Start() must fail")
	}
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	t.Parallel()

	s, err := NewScheduler(nil, nil, nil)
	if err != nil {
		t.Fatalf("NewScheduler() unexpected error: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop() unexpected error: %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	s, err := NewScheduler(discardLogger(), &config.SchedulerConfig{}, nil)
	if err != nil {
		t.Fatalf("NewScheduler() unexpected error: %v", err)
	}
	listener := &blockingListener{started: make(chan struct{})}
	b := NewBot(discardLogger(), &config.Config{}, pingStore{}, listener, s)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	select {
	case <-listener.started:
	case <-time.After(2 * time.Second):
		t.Fatal("listener was not started")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}

func TestRunFailsWhenListenerExits(t *testing.T) {
	t.Parallel()

	b := NewBot(discardLogger(), &config.Config{}, pingStore{}, returningListener{}, nil)
	if err := b.Run(context.Background()); err == nil {
		t.Error("Run() must fail when the listener stops on its own")
	}
}

func TestRunFailsWhenStoreUnavailable(t *testing.T) {
	t.Parallel()

	errDB := errors.New("closed")
	b := NewBot(discardLogger(), &config.Config{}, pingStore{err: errDB}, returningListener{}, nil)
	if err := b.Run(context.Background()); !errors.Is(err, errDB) {
		t.Errorf("Run() error = %v, want wrapped %v", err, errDB)
	}
}
