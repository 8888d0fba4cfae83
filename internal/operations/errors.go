package operations

import "fmt"

// UnknownOperationError reports a lookup for an identifier that was never
// registered.
type UnknownOperationError struct {
	ID string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("operation not found: %s", e.ID)
}

// DuplicateOperationError reports a second registration of an identifier.
type DuplicateOperationError struct {
	ID string
}

func (e *DuplicateOperationError) Error() string {
	return fmt.Sprintf("operation already registered: %s", e.ID)
}

// InvalidParameterError names the offending parameter and the violated
// constraint. Validation is all-or-nothing: no work starts after one of
// these is returned.
type InvalidParameterError struct {
	Op         string
	Param      string
	Constraint string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %q for operation %s: %s", e.Param, e.Op, e.Constraint)
}

// OutOfBoundsError reports a geometric operation referencing a region
// outside the buffer extent.
type OutOfBoundsError struct {
	Op     string
	Detail string
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("operation %s out of bounds: %s", e.Op, e.Detail)
}

// UnsupportedError reports valid parameters that the given buffer cannot
// satisfy, e.g. a blur kernel larger than the image.
type UnsupportedError struct {
	Op     string
	Reason string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("operation %s unsupported for this image: %s", e.Op, e.Reason)
}
