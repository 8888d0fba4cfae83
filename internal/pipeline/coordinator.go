// Execution coordinator: single-flight scheduler for image operations
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"raster-editor/internal/history"
	"raster-editor/internal/metrics"
	"raster-editor/internal/operations"
	"raster-editor/internal/raster"
)

// State of the coordinator's submission machine.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrPipelineBusy rejects a submit while another operation is running.
// At most one operation executes at a time.
var ErrPipelineBusy = errors.New("an operation is already running")

// ExecutionError wraps an unexpected failure inside an executor. History is
// never mutated when one of these surfaces.
type ExecutionError struct {
	OpID string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("operation %s failed: %v", e.OpID, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Coordinator validates submissions against the registry, executes them on
// a worker goroutine and advances history on success. Buffers are immutable
// so the only race to prevent is concurrent advancement of the history
// index, which the single-flight rule serializes.
type Coordinator struct {
	mu       sync.Mutex
	state    State
	registry *operations.Registry
	hist     *history.History
	eval     *metrics.Evaluator
	logger   *slog.Logger

	onState    func(State)
	onProgress func(int)
	onComplete func(*raster.Buffer, map[string]float64)
	onError    func(error)

	lastResult *raster.Buffer
	lastErr    error
	done       chan struct{}
}

func NewCoordinator(registry *operations.Registry, hist *history.History, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		state:    StateIdle,
		registry: registry,
		hist:     hist,
		eval:     metrics.NewEvaluator(),
		logger:   logger,
	}
}

// SetCallbacks registers the observer hooks. State transitions and progress
// updates are delivered in the order they occur, at most once each, from
// the single worker goroutine. Progress reporting is best-effort.
func (c *Coordinator) SetCallbacks(
	onState func(State),
	onProgress func(int),
	onComplete func(*raster.Buffer, map[string]float64),
	onError func(error),
) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = onState
	c.onProgress = onProgress
	c.onComplete = onComplete
	c.onError = onError
}

// Submit validates the operation and starts it on a worker goroutine.
// Validation errors (unknown operation, invalid parameters, bounds, kernel
// feasibility) surface synchronously before any worker starts. A submit
// while an operation is running fails with ErrPipelineBusy. Submitting from
// Completed or Failed implicitly acknowledges the previous result.
func (c *Coordinator) Submit(id string, params map[string]interface{}) error {
	bound, err := c.registry.Resolve(id, params)
	if err != nil {
		c.logger.Error("COORDINATOR: Validation failed", "operation", id, "error", err)
		return err
	}

	c.mu.Lock()
	if c.state == StateRunning {
		c.mu.Unlock()
		c.logger.Warn("COORDINATOR: Rejecting concurrent submit", "operation", id)
		return ErrPipelineBusy
	}
	input := c.hist.Current()
	if err := bound.ValidateFor(input); err != nil {
		c.mu.Unlock()
		c.logger.Error("COORDINATOR: Buffer validation failed", "operation", id, "error", err)
		return err
	}
	c.state = StateRunning
	c.lastResult = nil
	c.lastErr = nil
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	c.logger.Info("COORDINATOR: Operation submitted", "operation", id, "params", bound.Params)
	c.notifyState(StateRunning)

	go c.run(bound, input, done)
	return nil
}

func (c *Coordinator) run(bound *operations.BoundOperation, input *raster.Buffer, done chan struct{}) {
	defer close(done)
	start := time.Now()

	c.notifyProgress(10)
	output, err := safeApply(bound, input)
	if err != nil {
		execErr := &ExecutionError{OpID: bound.ID, Err: err}
		c.logger.Error("COORDINATOR: Operation failed", "operation", bound.ID, "error", err)

		c.mu.Lock()
		c.state = StateFailed
		c.lastErr = execErr
		c.mu.Unlock()

		c.notifyState(StateFailed)
		c.notifyError(execErr)
		return
	}
	c.notifyProgress(90)

	c.hist.Apply(history.Record{
		OpID:      bound.ID,
		Params:    bound.Params,
		AppliedAt: time.Now(),
		Result:    output,
	})

	quality := c.evaluate(input, output)
	c.notifyProgress(100)

	c.mu.Lock()
	c.state = StateCompleted
	c.lastResult = output
	c.mu.Unlock()

	c.logger.Info("COORDINATOR: Operation completed",
		"operation", bound.ID,
		"duration_ms", time.Since(start).Milliseconds(),
		"width", output.Width(),
		"height", output.Height())

	c.notifyState(StateCompleted)
	c.notifyComplete(output, quality)
}

// safeApply turns executor panics into errors so a misbehaving kernel
// cannot take the process down or leave the coordinator stuck in Running.
func safeApply(bound *operations.BoundOperation, input *raster.Buffer) (output *raster.Buffer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()
	output, err = bound.Apply(input)
	if err == nil && output == nil {
		err = errors.New("executor returned no result")
	}
	return output, err
}

// evaluate computes quality metrics between input and output when their
// layouts match; geometric operations that change the shape yield none.
func (c *Coordinator) evaluate(input, output *raster.Buffer) map[string]float64 {
	quality := make(map[string]float64)
	if mse, err := c.eval.MSE(input, output); err == nil {
		quality["mse"] = mse
	}
	if psnr, err := c.eval.PSNR(input, output); err == nil {
		quality["psnr"] = psnr
	}
	return quality
}

// Acknowledge returns the coordinator to Idle after a completed or failed
// operation has been observed by the caller.
func (c *Coordinator) Acknowledge() {
	c.mu.Lock()
	if c.state != StateCompleted && c.state != StateFailed {
		c.mu.Unlock()
		return
	}
	c.state = StateIdle
	c.mu.Unlock()
	c.notifyState(StateIdle)
}

// State returns the current coordinator state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error of the last failed operation, if any.
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Result returns the buffer produced by the last completed operation.
func (c *Coordinator) Result() *raster.Buffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResult
}

// SubmitAndWait submits an operation, blocks until it finishes and
// acknowledges the result. Convenience for sequential callers like the CLI.
func (c *Coordinator) SubmitAndWait(id string, params map[string]interface{}) (*raster.Buffer, error) {
	if err := c.Submit(id, params); err != nil {
		return nil, err
	}

	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	<-done

	c.mu.Lock()
	result, err := c.lastResult, c.lastErr
	c.mu.Unlock()

	c.Acknowledge()
	return result, err
}

func (c *Coordinator) notifyState(s State) {
	c.mu.Lock()
	cb := c.onState
	c.mu.Unlock()
	if cb != nil {
		cb(s)
	}
}

func (c *Coordinator) notifyProgress(percent int) {
	c.mu.Lock()
	cb := c.onProgress
	c.mu.Unlock()
	if cb != nil {
		cb(percent)
	}
}

func (c *Coordinator) notifyComplete(buf *raster.Buffer, quality map[string]float64) {
	c.mu.Lock()
	cb := c.onComplete
	c.mu.Unlock()
	if cb != nil {
		cb(buf, quality)
	}
}

func (c *Coordinator) notifyError(err error) {
	c.mu.Lock()
	cb := c.onError
	c.mu.Unlock()
	if cb != nil {
		cb(err)
	}
}
