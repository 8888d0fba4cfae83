// Operation registry with schema-driven parameter validation
package operations

import (
	"sort"
	"sync"

	"raster-editor/internal/raster"
)

// Registry maps operation identifiers to their implementations.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]Operation
}

func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]Operation)}
}

// Default returns a registry with all built-in operations registered.
func Default() *Registry {
	r := NewRegistry()
	for _, op := range []Operation{
		&RotateOp{},
		&FlipOp{},
		&CropOp{},
		&ResizeOp{},
		&BrightnessOp{},
		&ContrastOp{},
		&SharpenOp{},
		&BlurOp{},
		&NoiseOp{},
		&GrayscaleOp{},
		&SepiaOp{},
		&InvertOp{},
		&EmbossOp{},
		&EdgeDetectOp{},
		&SaturationOp{},
		&HueRotateOp{},
		&ThresholdOp{},
		&MorphologyOp{},
	} {
		if err := r.Register(op.Name(), op); err != nil {
			// built-in names are unique by construction
			panic(err)
		}
	}
	return r
}

// Register adds an operation under the given identifier.
func (r *Registry) Register(id string, op Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ops[id]; exists {
		return &DuplicateOperationError{ID: id}
	}
	r.ops[id] = op
	return nil
}

// Get looks up an operation by identifier.
func (r *Registry) Get(id string) (Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[id]
	return op, ok
}

// Names returns all registered identifiers, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve validates params against the operation's schema and returns a
// bound operation ready to execute. Validation is all-or-nothing: any
// violation is reported before execution can start.
func (r *Registry) Resolve(id string, params map[string]interface{}) (*BoundOperation, error) {
	r.mu.RLock()
	op, ok := r.ops[id]
	r.mu.RUnlock()

	if !ok {
		return nil, &UnknownOperationError{ID: id}
	}

	bound, err := validateParams(id, op.Schema(), params)
	if err != nil {
		return nil, err
	}
	if checker, ok := op.(paramChecker); ok {
		if err := checker.CheckParams(bound); err != nil {
			return nil, err
		}
	}
	return &BoundOperation{ID: id, Params: bound, op: op}, nil
}

// BoundOperation is an operation with fully validated parameters.
type BoundOperation struct {
	ID     string
	Params map[string]interface{}
	op     Operation
}

// ValidateFor runs input-dependent checks (bounds, kernel feasibility)
// against the buffer the operation would execute on.
func (b *BoundOperation) ValidateFor(input *raster.Buffer) error {
	if v, ok := b.op.(bufferValidator); ok {
		return v.ValidateFor(input, b.Params)
	}
	return nil
}

// Apply executes the operation against the input buffer.
func (b *BoundOperation) Apply(input *raster.Buffer) (*raster.Buffer, error) {
	return b.op.Apply(input, b.Params)
}
