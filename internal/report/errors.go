package report

import "fmt"

// StructuralFormatError means the sheet shape does not match the expected
// template (a sentinel label or required column is absent). It is fatal for
// the run; nothing is written.
type StructuralFormatError struct {
	Missing []string
}

func (e *StructuralFormatError) Error() string {
	return fmt.Sprintf("sheet does not match expected template, missing: %v", e.Missing)
}

func newStructuralError(missing ...string) *StructuralFormatError {
	return &StructuralFormatError{Missing: missing}
}
