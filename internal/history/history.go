// Pipeline history: ordered log of applied operations anchored at the
// original buffer, with undo/redo and reset
package history

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"raster-editor/internal/raster"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Record describes one applied operation and the buffer it produced.
type Record struct {
	OpID      string
	Params    map[string]interface{}
	AppliedAt time.Time
	Result    *raster.Buffer
}

// History owns one editing session: the original buffer, the ordered record
// sequence and the current index. Index 0 is the original; index i > 0 means
// records[i-1].Result is current. All mutation goes through Apply, Undo,
// Redo and ResetToOriginal.
type History struct {
	mu       sync.RWMutex
	original *raster.Buffer
	records  []Record
	index    int
}

// New starts a session anchored at the original buffer.
func New(original *raster.Buffer) (*History, error) {
	if original == nil {
		return nil, fmt.Errorf("cannot start a session without an original image")
	}
	return &History{original: original}, nil
}

// Original returns the buffer the session was anchored at. It is held for
// the lifetime of the session and never replaced.
func (h *History) Original() *raster.Buffer {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.original
}

// Current returns the buffer at the current index in O(1).
func (h *History) Current() *raster.Buffer {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.currentLocked()
}

func (h *History) currentLocked() *raster.Buffer {
	if h.index == 0 {
		return h.original
	}
	return h.records[h.index-1].Result
}

// Apply appends a record and advances the current index. Records past the
// current index are truncated first: a new edit after undo discards the
// redo branch.
func (h *History) Apply(rec Record) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records[:h.index], rec)
	h.index = len(h.records)
}

// Undo steps the current index back by one.
func (h *History) Undo() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.index == 0 {
		return ErrNothingToUndo
	}
	h.index--
	return nil
}

// Redo steps the current index forward by one.
func (h *History) Redo() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.index == len(h.records) {
		return ErrNothingToRedo
	}
	h.index++
	return nil
}

// ResetToOriginal restores the original buffer as current and clears the
// record sequence. The original itself is never discarded.
func (h *History) ResetToOriginal() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = nil
	h.index = 0
}

// Len returns the number of records currently in effect.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.index
}

// Records returns a copy of the records up to the current index.
func (h *History) Records() []Record {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Record, h.index)
	copy(out, h.records[:h.index])
	return out
}

func (h *History) CanUndo() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.index > 0
}

func (h *History) CanRedo() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.index < len(h.records)
}
