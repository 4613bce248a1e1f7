package rw

import (
	"fmt"
)

// LoadError reports malformed source stream, it is fatal to the load.
type LoadError struct {
	Line, Col int
	Err       error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("malformed export at line %d, column %d: %v", e.Line, e.Col, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// StructuralError reports absent required section or tree which is too deep
// to be processed. It is fatal to a single render call.
type StructuralError struct {
	Path string
	Msg  string
}

func (e *StructuralError) Error() string {
	if len(e.Path) == 0 {
		return "structural error: " + e.Msg
	}
	return fmt.Sprintf("structural error at %s: %s", e.Path, e.Msg)
}

// MaxDepth limits tree nesting for both loading and rendering.
const MaxDepth = 1000
