package orchestration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leefowlercu/chunkalyze/internal/events"
)

// run tracks one in-flight instance. Once finished is set the outcome is
// fixed and termination requests are refused.
type run struct {
	cancel context.CancelFunc

	mu         sync.Mutex
	terminated bool
	finished   bool
}

// terminate marks the run terminated. It reports false if the run already
// finished or was already terminated.
func (rn *run) terminate() bool {
	rn.mu.Lock()
	defer rn.mu.Unlock()
	if rn.finished || rn.terminated {
		return false
	}
	rn.terminated = true
	return true
}

// finish fixes the outcome and reports whether termination was requested first.
func (rn *run) finish() bool {
	rn.mu.Lock()
	defer rn.mu.Unlock()
	rn.finished = true
	return rn.terminated
}

// Runner executes analyses in the background and records their state.
type Runner struct {
	driver *Driver
	store  Store
	bus    events.Bus
	logger *slog.Logger

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu      sync.Mutex
	running map[string]*run
	closed  bool
	wg      sync.WaitGroup

	// afterRun, when set, runs between the driver returning and the final
	// state being recorded.
	afterRun func(id string)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerEventBus publishes instance lifecycle events on bus.
func WithRunnerEventBus(bus events.Bus) RunnerOption {
	return func(r *Runner) {
		r.bus = bus
	}
}

// WithRunnerLogger sets the logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner.
func NewRunner(driver *Driver, store Store, opts ...RunnerOption) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		driver:     driver,
		store:      store,
		logger:     slog.Default(),
		baseCtx:    ctx,
		baseCancel: cancel,
		running:    make(map[string]*run),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start records a Pending instance and runs the analysis in the background.
// ctx bounds only the initial store write; the analysis itself runs until it
// finishes, is terminated, or the runner shuts down.
func (r *Runner) Start(ctx context.Context, params *Params) (*Instance, error) {
	now := time.Now().UTC()
	inst := &Instance{
		ID:            uuid.NewString(),
		Method:        params.Method,
		RuntimeStatus: StatusPending,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRunnerClosed
	}
	runCtx, cancel := context.WithCancel(r.baseCtx)
	rn := &run{cancel: cancel}
	r.running[inst.ID] = rn
	r.wg.Add(1)
	r.mu.Unlock()

	if err := r.store.Save(ctx, inst); err != nil {
		r.forget(inst.ID)
		cancel()
		r.wg.Done()
		return nil, fmt.Errorf("failed to record instance; %w", err)
	}

	r.publish(events.NewInstanceStarted(inst.ID, inst.Method.String()))
	r.logger.Info("instance started", "instance_id", inst.ID, "method", inst.Method)

	snapshot := inst.clone()
	go r.execute(runCtx, rn, inst, params)

	return snapshot, nil
}

func (r *Runner) execute(ctx context.Context, rn *run, inst *Instance, params *Params) {
	defer r.wg.Done()
	defer r.forget(inst.ID)
	defer rn.cancel()

	inst.RuntimeStatus = StatusRunning
	r.save(inst)

	outcome, err := r.driver.RunInstance(ctx, inst.ID, params, func(phase Phase, chunkCount int) {
		inst.Phase = phase
		inst.ChunkCount = chunkCount
		r.save(inst)
	})

	terminated := rn.finish()
	if r.afterRun != nil {
		r.afterRun(inst.ID)
	}

	switch {
	case terminated:
		inst.RuntimeStatus = StatusTerminated
		inst.Error = "terminated"
		r.publish(events.NewInstanceTerminated(inst.ID, inst.Method.String()))
	case err != nil:
		inst.RuntimeStatus = StatusFailed
		inst.Error = err.Error()
	default:
		inst.RuntimeStatus = StatusCompleted
		inst.ChunkCount = outcome.ChunkCount
		inst.Result = outcome.Result
		inst.Output = outcome.Result.Strings()
	}
	r.save(inst)

	r.logger.Info("instance finished",
		"instance_id", inst.ID,
		"method", inst.Method,
		"status", inst.RuntimeStatus,
	)
}

// Status returns the recorded state of an instance.
func (r *Runner) Status(ctx context.Context, id string) (*Instance, error) {
	return r.store.Get(ctx, id)
}

// Terminate cancels a running instance. The instance reaches Terminated
// once its in-flight backend calls have returned.
func (r *Runner) Terminate(ctx context.Context, id string) error {
	r.mu.Lock()
	rn, ok := r.running[id]
	r.mu.Unlock()

	if !ok {
		if _, err := r.store.Get(ctx, id); err != nil {
			return err
		}
		return ErrInstanceFinished
	}

	if !rn.terminate() {
		return ErrInstanceFinished
	}
	rn.cancel()
	r.logger.Info("instance termination requested", "instance_id", id)
	return nil
}

// Active returns the number of instances still running.
func (r *Runner) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.running)
}

// Shutdown stops accepting instances, cancels running ones, and waits for
// them to record their final state or for ctx to expire.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	for _, rn := range r.running {
		rn.terminate()
	}
	r.mu.Unlock()

	r.baseCancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("instances still running at shutdown; %w", ctx.Err())
	}
}

func (r *Runner) forget(id string) {
	r.mu.Lock()
	delete(r.running, id)
	r.mu.Unlock()
}

// save records inst, logging rather than failing the run on store errors.
func (r *Runner) save(inst *Instance) {
	inst.LastUpdatedAt = time.Now().UTC()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.store.Save(ctx, inst); err != nil {
		r.logger.Error("failed to record instance state",
			"instance_id", inst.ID,
			"status", inst.RuntimeStatus,
			"error", err,
		)
	}
}

func (r *Runner) publish(event events.Event) {
	if r.bus == nil {
		return
	}
	if err := r.bus.Publish(context.Background(), event); err != nil && !errors.Is(err, events.ErrBusClosed) {
		r.logger.Debug("failed to publish event", "event_type", event.Type, "error", err)
	}
}
