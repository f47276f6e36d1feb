package shutdown

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewCoordinator(t *testing.T) {
	c := NewCoordinator(zap.NewNop())

	if c.GetHandlerCount() != 0 {
		t.Errorf("Expected 0 handlers, got %d", c.GetHandlerCount())
	}
	if c.IsShuttingDown() {
		t.Error("Expected IsShuttingDown to be false initially")
	}
}

func TestRegisterPriorityOrder(t *testing.T) {
	c := NewCoordinator(nil)
	noop := func(context.Context) error { return nil }

	c.Register(&Handler{Name: "low", Phase: PhaseStorage, Priority: 1, Fn: noop})
	c.Register(&Handler{Name: "high", Phase: PhaseStorage, Priority: 10, Fn: noop})
	c.Register(&Handler{Name: "also-low", Phase: PhaseStorage, Priority: 1, Fn: noop})
	c.Register(&Handler{Name: "mid", Phase: PhaseStorage, Priority: 5, Fn: noop})

	got := strings.Join(c.GetPhaseHandlers(PhaseStorage), ",")
	if got != "high,mid,low,also-low" {
		t.Errorf("unexpected order: %s", got)
	}
	if c.GetHandlerCount() != 4 {
		t.Errorf("Expected 4 handlers, got %d", c.GetHandlerCount())
	}
}

func TestShutdownPhasesInOrder(t *testing.T) {
	c := NewCoordinator(zap.NewNop())

	var mu sync.Mutex
	var order []Phase
	record := func(p Phase) ShutdownFunc {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, p)
			mu.Unlock()
			return nil
		}
	}

	// registered out of order on purpose
	c.RegisterFunc("cleanup", PhaseCleanup, record(PhaseCleanup))
	c.RegisterFunc("storage", PhaseStorage, record(PhaseStorage))
	c.RegisterFunc("watchers", PhaseWatchers, record(PhaseWatchers))
	c.RegisterFunc("events", PhaseEvents, record(PhaseEvents))

	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []Phase{PhaseWatchers, PhaseEvents, PhaseStorage, PhaseCleanup}
	if len(order) != len(expected) {
		t.Fatalf("expected %d phases, got %d", len(expected), len(order))
	}
	for i := range expected {
		if order[i] != expected[i] {
			t.Errorf("position %d: expected %s, got %s", i, expected[i], order[i])
		}
	}
}

func TestShutdownHandlerErrorContinues(t *testing.T) {
	c := NewCoordinator(zap.NewNop())

	var ran atomic.Bool
	c.RegisterFunc("failing", PhaseWatchers, func(context.Context) error {
		return errors.New("watcher stuck")
	})
	c.RegisterCloser("db", PhaseStorage, func() error {
		ran.Store(true)
		return nil
	})

	err := c.Shutdown(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "phase Watchers: failing: watcher stuck") {
		t.Errorf("unexpected error text: %v", err)
	}
	if !ran.Load() {
		t.Error("later phases should still run")
	}
}

func TestShutdownHandlerTimeout(t *testing.T) {
	c := NewCoordinator(zap.NewNop())
	c.SetDefaultTimeout(50 * time.Millisecond)

	c.RegisterFunc("slow", PhaseEvents, func(context.Context) error {
		time.Sleep(2 * time.Second)
		return nil
	})

	start := time.Now()
	err := c.Shutdown(context.Background())
	if err == nil || !strings.Contains(err.Error(), "timed out after") {
		t.Errorf("expected handler to time out, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("shutdown waited for the slow handler")
	}
}

func TestShutdownTotalTimeout(t *testing.T) {
	c := NewCoordinator(zap.NewNop())
	c.SetTotalTimeout(50 * time.Millisecond)

	var storageRan atomic.Bool
	c.RegisterFunc("slow", PhaseWatchers, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	c.RegisterFunc("storage", PhaseStorage, func(context.Context) error {
		storageRan.Store(true)
		return nil
	})

	err := c.Shutdown(context.Background())
	if err == nil || !strings.Contains(err.Error(), "shutdown deadline") {
		t.Errorf("expected shutdown deadline error, got %v", err)
	}
	if storageRan.Load() {
		t.Error("phases after the timeout should be skipped")
	}
}

func TestShutdownOnlyOnce(t *testing.T) {
	c := NewCoordinator(zap.NewNop())

	var count atomic.Int32
	c.RegisterFunc("counter", PhaseCleanup, func(context.Context) error {
		count.Add(1)
		return nil
	})

	for i := 0; i < 3; i++ {
		_ = c.Shutdown(context.Background())
	}

	if count.Load() != 1 {
		t.Errorf("expected handler to run once, ran %d times", count.Load())
	}
	if !c.IsShuttingDown() {
		t.Error("expected IsShuttingDown after Shutdown")
	}
}

func TestDoneChannel(t *testing.T) {
	c := NewCoordinator(zap.NewNop())

	select {
	case <-c.Done():
		t.Fatal("Done closed before shutdown")
	default:
	}

	_ = c.Shutdown(context.Background())

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after shutdown")
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseWatchers, "Watchers"},
		{PhaseEvents, "Events"},
		{PhaseStorage, "Storage"},
		{PhaseCleanup, "Cleanup"},
		{Phase(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}
