// Package shutdown runs cleanup handlers in a fixed phase order when
// cliconfig exits.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"cliconfig-go/internal/config"
)

// Phase groups handlers that run together. Phases run in declaration order.
type Phase int

const (
	// PhaseWatchers stops file watchers so no reload races the teardown
	PhaseWatchers Phase = iota
	// PhaseEvents closes the event bus and its subscribers
	PhaseEvents
	// PhaseStorage closes the database
	PhaseStorage
	// PhaseCleanup flushes logs and anything else left
	PhaseCleanup
)

var phaseOrder = []Phase{PhaseWatchers, PhaseEvents, PhaseStorage, PhaseCleanup}

func (p Phase) String() string {
	switch p {
	case PhaseWatchers:
		return "Watchers"
	case PhaseEvents:
		return "Events"
	case PhaseStorage:
		return "Storage"
	case PhaseCleanup:
		return "Cleanup"
	default:
		return "Unknown"
	}
}

// ShutdownFunc performs shutdown work, giving up when ctx is done.
type ShutdownFunc func(ctx context.Context) error

// Handler is one piece of cleanup work.
type Handler struct {
	Name     string
	Phase    Phase
	Priority int // runs before lower priorities of the same phase
	Fn       ShutdownFunc
	Timeout  time.Duration // zero means the coordinator default
}

// Coordinator tears down the components of one cliconfig process.
type Coordinator struct {
	mu       sync.RWMutex
	handlers map[Phase][]*Handler
	logger   *zap.Logger

	shutdownOnce   sync.Once
	shutdownDone   chan struct{}
	shutdownErr    error
	isShuttingDown atomic.Bool

	defaultTimeout time.Duration
	totalTimeout   time.Duration
}

// NewCoordinator returns a coordinator using the timeouts from the config package.
func NewCoordinator(logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		handlers:       make(map[Phase][]*Handler),
		logger:         logger.Named("shutdown"),
		shutdownDone:   make(chan struct{}),
		defaultTimeout: config.ShutdownPhaseTimeout,
		totalTimeout:   config.ShutdownTimeout,
	}
}

// Register adds h to its phase, keeping the phase sorted by priority.
func (c *Coordinator) Register(h *Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h.Timeout == 0 {
		h.Timeout = c.defaultTimeout
	}

	handlers := append(c.handlers[h.Phase], h)
	sort.SliceStable(handlers, func(i, j int) bool {
		return handlers[i].Priority > handlers[j].Priority
	})
	c.handlers[h.Phase] = handlers

	c.logger.Debug("Registered shutdown handler",
		zap.String("name", h.Name),
		zap.String("phase", h.Phase.String()),
		zap.Int("priority", h.Priority))
}

// RegisterFunc registers fn with default priority and timeout
func (c *Coordinator) RegisterFunc(name string, phase Phase, fn ShutdownFunc) {
	c.Register(&Handler{Name: name, Phase: phase, Fn: fn})
}

// RegisterCloser registers a Close method as a handler
func (c *Coordinator) RegisterCloser(name string, phase Phase, closeFn func() error) {
	c.RegisterFunc(name, phase, func(context.Context) error { return closeFn() })
}

// IsShuttingDown reports whether Shutdown has started.
func (c *Coordinator) IsShuttingDown() bool {
	return c.isShuttingDown.Load()
}

// Done is closed once every phase has run.
func (c *Coordinator) Done() <-chan struct{} {
	return c.shutdownDone
}

// Shutdown runs every phase in order. Only the first call does the work;
// later calls return its result.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.shutdownOnce.Do(func() {
		c.isShuttingDown.Store(true)
		c.shutdownErr = c.executeShutdown(ctx)
		close(c.shutdownDone)
	})
	return c.shutdownErr
}

func (c *Coordinator) executeShutdown(ctx context.Context) error {
	startTime := time.Now()

	c.mu.RLock()
	total := c.totalTimeout
	c.mu.RUnlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, total)
	defer cancel()

	var allErrors []error
	for _, phase := range phaseOrder {
		if err := c.executePhase(shutdownCtx, phase); err != nil {
			allErrors = append(allErrors, fmt.Errorf("phase %s: %w", phase, err))
		}

		if shutdownCtx.Err() != nil {
			c.logger.Warn("Shutdown deadline passed, skipping later phases",
				zap.Duration("elapsed", time.Since(startTime)))
			allErrors = append(allErrors, fmt.Errorf("shutdown deadline: %w", shutdownCtx.Err()))
			break
		}
	}

	if len(allErrors) > 0 {
		c.logger.Warn("Shutdown completed with errors",
			zap.Duration("duration", time.Since(startTime)),
			zap.Int("error_count", len(allErrors)))
		return errors.Join(allErrors...)
	}

	c.logger.Debug("Shutdown completed", zap.Duration("duration", time.Since(startTime)))
	return nil
}

func (c *Coordinator) executePhase(ctx context.Context, phase Phase) error {
	c.mu.RLock()
	handlers := append([]*Handler(nil), c.handlers[phase]...)
	c.mu.RUnlock()

	var phaseErrors []error
	for _, h := range handlers {
		if err := c.executeHandler(ctx, h); err != nil {
			phaseErrors = append(phaseErrors, fmt.Errorf("%s: %w", h.Name, err))
		}
	}
	return errors.Join(phaseErrors...)
}

func (c *Coordinator) executeHandler(ctx context.Context, h *Handler) error {
	handlerCtx, cancel := context.WithTimeout(ctx, h.Timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.Fn(handlerCtx)
	}()

	var err error
	select {
	case err = <-errCh:
	case <-handlerCtx.Done():
		err = fmt.Errorf("timed out after %v", h.Timeout)
	}

	if err != nil {
		c.logger.Warn("Shutdown handler failed", zap.String("name", h.Name), zap.Error(err))
		return err
	}
	return nil
}

// SetTotalTimeout bounds the whole sequence.
func (c *Coordinator) SetTotalTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalTimeout = d
}

// SetDefaultTimeout sets the default timeout for handlers registered later
func (c *Coordinator) SetDefaultTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultTimeout = d
}

// GetHandlerCount counts handlers across all phases.
func (c *Coordinator) GetHandlerCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	count := 0
	for _, handlers := range c.handlers {
		count += len(handlers)
	}
	return count
}

// GetPhaseHandlers returns the handler names of a phase in execution order
func (c *Coordinator) GetPhaseHandlers(phase Phase) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var names []string
	for _, h := range c.handlers[phase] {
		names = append(names, h.Name)
	}
	return names
}
