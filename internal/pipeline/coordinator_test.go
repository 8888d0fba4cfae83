package pipeline

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"raster-editor/internal/history"
	"raster-editor/internal/operations"
	"raster-editor/internal/raster"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rampBuffer(t *testing.T, w, h int) *raster.Buffer {
	t.Helper()
	pix := make([]byte, w*h*3)
	for i := range pix {
		pix[i] = byte(i * 3)
	}
	buf, err := raster.New(w, h, 3, 8, pix)
	if err != nil {
		t.Fatalf("building buffer: %v", err)
	}
	return buf
}

func newCoordinator(t *testing.T, registry *operations.Registry, original *raster.Buffer) (*Coordinator, *history.History) {
	t.Helper()
	hist, err := history.New(original)
	if err != nil {
		t.Fatalf("history.New failed: %v", err)
	}
	return NewCoordinator(registry, hist, discardLogger()), hist
}

// stubOp is a controllable executor for coordinator tests.
type stubOp struct {
	id      string
	started chan struct{}
	release chan struct{}
	fail    bool
	panics  bool
}

func (o *stubOp) Name() string                       { return o.id }
func (o *stubOp) Description() string                { return "test stub" }
func (o *stubOp) Schema() []operations.ParameterInfo { return nil }

func (o *stubOp) Apply(input *raster.Buffer, params map[string]interface{}) (*raster.Buffer, error) {
	if o.started != nil {
		close(o.started)
	}
	if o.release != nil {
		<-o.release
	}
	if o.panics {
		panic("kernel exploded")
	}
	if o.fail {
		return nil, errors.New("kernel failure")
	}
	return input, nil
}

func TestSubmit_RejectsConcurrentSubmit(t *testing.T) {
	registry := operations.NewRegistry()
	slow := &stubOp{id: "slow", started: make(chan struct{}), release: make(chan struct{})}
	if err := registry.Register("slow", slow); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	coord, hist := newCoordinator(t, registry, rampBuffer(t, 8, 8))
	completed := make(chan struct{})
	coord.SetCallbacks(nil, nil, func(*raster.Buffer, map[string]float64) { close(completed) }, nil)

	if err := coord.Submit("slow", nil); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	<-slow.started

	if err := coord.Submit("slow", nil); !errors.Is(err, ErrPipelineBusy) {
		t.Errorf("second submit: got %v, want ErrPipelineBusy", err)
	}

	close(slow.release)
	select {
	case <-completed:
	case <-time.After(5 * time.Second):
		t.Fatal("operation never completed")
	}

	if hist.Len() != 1 {
		t.Errorf("history length: got %d, want 1", hist.Len())
	}
}

func TestSubmit_ValidationErrorBeforeWorker(t *testing.T) {
	coord, hist := newCoordinator(t, operations.Default(), rampBuffer(t, 8, 8))

	err := coord.Submit("brightness", map[string]interface{}{"delta": 999.0})
	var invalid *operations.InvalidParameterError
	if !errors.As(err, &invalid) {
		t.Fatalf("got %v, want InvalidParameterError", err)
	}
	if coord.State() != StateIdle {
		t.Errorf("state: got %v, want idle", coord.State())
	}
	if hist.Len() != 0 {
		t.Error("history must not change on validation failure")
	}
}

func TestSubmit_OutOfBoundsBeforeWorker(t *testing.T) {
	coord, hist := newCoordinator(t, operations.Default(), rampBuffer(t, 100, 100))

	err := coord.Submit("crop", map[string]interface{}{"x": 10.0, "y": 10.0, "w": 200.0, "h": 200.0})
	var oob *operations.OutOfBoundsError
	if !errors.As(err, &oob) {
		t.Fatalf("got %v, want OutOfBoundsError", err)
	}
	if coord.State() != StateIdle || hist.Len() != 0 {
		t.Error("failed validation must leave the coordinator idle and history unchanged")
	}
}

func TestSubmitAndWait_Success(t *testing.T) {
	original := rampBuffer(t, 8, 8)
	coord, hist := newCoordinator(t, operations.Default(), original)

	result, err := coord.SubmitAndWait("brightness", map[string]interface{}{"delta": 10.0})
	if err != nil {
		t.Fatalf("SubmitAndWait failed: %v", err)
	}
	if hist.Len() != 1 {
		t.Errorf("history length: got %d, want 1", hist.Len())
	}
	if hist.Current() != result {
		t.Error("history current should be the returned buffer")
	}
	if coord.State() != StateIdle {
		t.Errorf("state after acknowledge: got %v, want idle", coord.State())
	}

	// spot-check the composition input: +10 on the first byte
	if got, want := result.Pix()[0], original.Pix()[0]+10; got != want {
		t.Errorf("first byte: got %d, want %d", got, want)
	}
}

func TestSubmitAndWait_FailureLeavesHistoryUnchanged(t *testing.T) {
	registry := operations.NewRegistry()
	if err := registry.Register("broken", &stubOp{id: "broken", fail: true}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	original := rampBuffer(t, 8, 8)
	coord, hist := newCoordinator(t, registry, original)

	_, err := coord.SubmitAndWait("broken", nil)
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("got %v, want ExecutionError", err)
	}
	if hist.Len() != 0 || hist.Current() != original {
		t.Error("failed execution must leave history at the last good buffer")
	}
	if coord.State() != StateIdle {
		t.Errorf("state after acknowledge: got %v, want idle", coord.State())
	}
}

func TestSubmitAndWait_PanicBecomesExecutionError(t *testing.T) {
	registry := operations.NewRegistry()
	if err := registry.Register("panicky", &stubOp{id: "panicky", panics: true}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	coord, hist := newCoordinator(t, registry, rampBuffer(t, 8, 8))

	_, err := coord.SubmitAndWait("panicky", nil)
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("got %v, want ExecutionError", err)
	}
	if hist.Len() != 0 {
		t.Error("history must not change when the executor panics")
	}
}

func TestSequentialComposition(t *testing.T) {
	original := rampBuffer(t, 8, 8)
	coord, hist := newCoordinator(t, operations.Default(), original)

	if _, err := coord.SubmitAndWait("brightness", map[string]interface{}{"delta": 10.0}); err != nil {
		t.Fatalf("brightness failed: %v", err)
	}
	result, err := coord.SubmitAndWait("invert", nil)
	if err != nil {
		t.Fatalf("invert failed: %v", err)
	}

	if hist.Len() != 2 {
		t.Errorf("history length: got %d, want 2", hist.Len())
	}

	// composition in order: invert(brightness(original))
	srcPix := original.Pix()
	outPix := result.Pix()
	for i := 0; i < 12; i++ {
		brightened := int(srcPix[i]) + 10
		if brightened > 255 {
			brightened = 255
		}
		if int(outPix[i]) != 255-brightened {
			t.Fatalf("byte %d: got %d, want %d", i, outPix[i], 255-brightened)
		}
	}
}

func TestResetToOriginalAfterBlur(t *testing.T) {
	original := rampBuffer(t, 16, 16)
	coord, hist := newCoordinator(t, operations.Default(), original)

	if _, err := coord.SubmitAndWait("blur", map[string]interface{}{"kernel-size": 3.0}); err != nil {
		t.Fatalf("blur failed: %v", err)
	}
	hist.ResetToOriginal()

	if !hist.Current().Equal(original) {
		t.Error("reset must restore the original byte-for-byte")
	}
	if hist.Original() == nil {
		t.Error("original reference must never be nil")
	}
}

func TestRotateThenCropScenario(t *testing.T) {
	coord, hist := newCoordinator(t, operations.Default(), rampBuffer(t, 100, 100))

	rotated, err := coord.SubmitAndWait("rotate", map[string]interface{}{"angle": 90.0})
	if err != nil {
		t.Fatalf("rotate failed: %v", err)
	}
	if rotated.Width() != 100 || rotated.Height() != 100 {
		t.Errorf("rotated dimensions: got %dx%d, want 100x100", rotated.Width(), rotated.Height())
	}

	cropped, err := coord.SubmitAndWait("crop", map[string]interface{}{"x": 10.0, "y": 10.0, "w": 50.0, "h": 50.0})
	if err != nil {
		t.Fatalf("crop failed: %v", err)
	}
	if cropped.Width() != 50 || cropped.Height() != 50 {
		t.Errorf("cropped dimensions: got %dx%d, want 50x50", cropped.Width(), cropped.Height())
	}
	if hist.Len() != 2 {
		t.Errorf("history length: got %d, want 2", hist.Len())
	}
}

func TestCallbackOrdering(t *testing.T) {
	coord, _ := newCoordinator(t, operations.Default(), rampBuffer(t, 8, 8))

	var mu sync.Mutex
	var states []State
	var progress []int
	coord.SetCallbacks(
		func(s State) {
			mu.Lock()
			states = append(states, s)
			mu.Unlock()
		},
		func(p int) {
			mu.Lock()
			progress = append(progress, p)
			mu.Unlock()
		},
		nil, nil,
	)

	if _, err := coord.SubmitAndWait("invert", nil); err != nil {
		t.Fatalf("SubmitAndWait failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	want := []State{StateRunning, StateCompleted, StateIdle}
	if len(states) != len(want) {
		t.Fatalf("states: got %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("states: got %v, want %v", states, want)
		}
	}

	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Errorf("progress went backwards: %v", progress)
		}
	}
}
