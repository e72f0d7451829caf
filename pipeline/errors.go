package pipeline

import "fmt"

// DuplicateTransformError is returned when registering a rule whose name is
// already taken at the same stage.
type DuplicateTransformError struct {
	Name  string
	Stage Stage
}

func (e *DuplicateTransformError) Error() string {
	return fmt.Sprintf("pipeline: transform %q already registered at %s stage", e.Name, e.Stage)
}

// TransformFailure records a rule that failed on one asset. The asset's
// content was passed on unmodified.
type TransformFailure struct {
	Path      string
	Transform string
	Stage     Stage
	Err       error
}

func (e *TransformFailure) Error() string {
	return fmt.Sprintf("transform %s (%s stage) failed for %s: %v", e.Transform, e.Stage, e.Path, e.Err)
}

func (e *TransformFailure) Unwrap() error { return e.Err }
