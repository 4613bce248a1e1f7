package content

import "fmt"

// IoError reports output which could not be written. Output produced for
// earlier topics stays on disk.
type IoError struct {
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("unable to write %s: %v", e.Path, e.Err)
}

func (e *IoError) Unwrap() error {
	return e.Err
}
