// Package scheduler runs periodic housekeeping for in-memory session stores.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper drops expired entries and reports how many were removed
type Sweeper interface {
	Sweep() int
}

// SweeperFunc adapts a function to Sweeper
type SweeperFunc func() int

// Sweep calls f
func (f SweeperFunc) Sweep() int { return f() }

type task struct {
	name     string
	sweeper  Sweeper
	interval time.Duration
}

// Janitor runs each registered sweeper on its own interval
type Janitor struct {
	logger *zap.Logger

	tasks     []task
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewJanitor creates a stopped janitor
func NewJanitor(logger *zap.Logger) *Janitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Janitor{logger: logger.Named("janitor")}
}

// Register adds a sweeper. It must be called before Start.
func (j *Janitor) Register(name string, sweeper Sweeper, interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.isRunning {
		return ErrJanitorRunning
	}
	j.tasks = append(j.tasks, task{name: name, sweeper: sweeper, interval: interval})
	return nil
}

// Start launches one loop per registered sweeper
func (j *Janitor) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.isRunning {
		return
	}
	j.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	j.cancel = cancel

	for _, t := range j.tasks {
		j.wg.Add(1)
		go j.loop(ctx, t)
	}

	j.logger.Info("Janitor started", zap.Int("tasks", len(j.tasks)))
}

// Stop cancels all loops and waits for them, bounded by ctx
func (j *Janitor) Stop(ctx context.Context) error {
	j.mu.Lock()
	if !j.isRunning {
		j.mu.Unlock()
		return nil
	}
	j.isRunning = false
	j.cancel()
	j.mu.Unlock()

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		j.logger.Info("Janitor stopped gracefully")
		return nil
	case <-ctx.Done():
		j.logger.Warn("Janitor stop timed out")
		return ctx.Err()
	}
}

func (j *Janitor) loop(ctx context.Context, t task) {
	defer j.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := t.sweeper.Sweep(); removed > 0 {
				j.logger.Debug("Swept expired sessions",
					zap.String("task", t.name),
					zap.Int("removed", removed),
				)
			}
		}
	}
}
