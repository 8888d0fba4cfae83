// Operation interface and parameter schema validation
package operations

import (
	"fmt"
	"math"

	"raster-editor/internal/raster"
)

// Operation is a pure, parametrized transform producing a new raster buffer
// from an existing one. Implementations never mutate their input and are
// deterministic: same input buffer and parameters yield the same output.
type Operation interface {
	Name() string
	Description() string
	Schema() []ParameterInfo
	Apply(input *raster.Buffer, params map[string]interface{}) (*raster.Buffer, error)
}

// paramChecker adds cross-parameter checks that a flat schema cannot
// express (odd kernel sizes, threshold ordering). Run at resolve time.
type paramChecker interface {
	CheckParams(params map[string]interface{}) error
}

// bufferValidator adds checks against the concrete input buffer (crop
// bounds, kernel feasibility). Run synchronously at submit time, before any
// worker starts.
type bufferValidator interface {
	ValidateFor(input *raster.Buffer, params map[string]interface{}) error
}

// ParameterInfo describes a parameter for validation and UI generation.
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "int", "float", "bool", "string", "enum"
	Min         interface{} `json:"min,omitempty"`
	Max         interface{} `json:"max,omitempty"`
	Default     interface{} `json:"default"`
	Description string      `json:"description"`
	Options     []string    `json:"options,omitempty"` // for enum type
}

// validateParams checks params against the schema all-or-nothing and
// returns a normalized copy with defaults filled in. Numeric values are
// normalized to float64, matching how callers pass literals.
func validateParams(opID string, schema []ParameterInfo, params map[string]interface{}) (map[string]interface{}, error) {
	known := make(map[string]bool, len(schema))
	for _, info := range schema {
		known[info.Name] = true
	}
	for name := range params {
		if !known[name] {
			return nil, &InvalidParameterError{Op: opID, Param: name, Constraint: "unknown parameter"}
		}
	}

	bound := make(map[string]interface{}, len(schema))
	for _, info := range schema {
		value, present := params[info.Name]
		if !present {
			bound[info.Name] = info.Default
			continue
		}

		switch info.Type {
		case "int":
			f, ok := toFloat(value)
			if !ok || f != math.Trunc(f) {
				return nil, &InvalidParameterError{Op: opID, Param: info.Name, Constraint: "must be an integer"}
			}
			if err := checkRange(opID, info, f); err != nil {
				return nil, err
			}
			bound[info.Name] = f
		case "float":
			f, ok := toFloat(value)
			if !ok {
				return nil, &InvalidParameterError{Op: opID, Param: info.Name, Constraint: "must be a number"}
			}
			if err := checkRange(opID, info, f); err != nil {
				return nil, err
			}
			bound[info.Name] = f
		case "bool":
			b, ok := value.(bool)
			if !ok {
				return nil, &InvalidParameterError{Op: opID, Param: info.Name, Constraint: "must be a boolean"}
			}
			bound[info.Name] = b
		case "string":
			s, ok := value.(string)
			if !ok {
				return nil, &InvalidParameterError{Op: opID, Param: info.Name, Constraint: "must be a string"}
			}
			bound[info.Name] = s
		case "enum":
			s, ok := value.(string)
			if !ok {
				return nil, &InvalidParameterError{Op: opID, Param: info.Name, Constraint: "must be a string"}
			}
			if !contains(info.Options, s) {
				return nil, &InvalidParameterError{
					Op:         opID,
					Param:      info.Name,
					Constraint: fmt.Sprintf("must be one of %v", info.Options),
				}
			}
			bound[info.Name] = s
		default:
			return nil, &InvalidParameterError{Op: opID, Param: info.Name, Constraint: "unknown parameter type in schema"}
		}
	}
	return bound, nil
}

func checkRange(opID string, info ParameterInfo, f float64) error {
	if min, ok := toFloat(info.Min); ok && f < min {
		return &InvalidParameterError{
			Op:         opID,
			Param:      info.Name,
			Constraint: fmt.Sprintf("must be >= %v", info.Min),
		}
	}
	if max, ok := toFloat(info.Max); ok && f > max {
		return &InvalidParameterError{
			Op:         opID,
			Param:      info.Name,
			Constraint: fmt.Sprintf("must be <= %v", info.Max),
		}
	}
	return nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func contains(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}
