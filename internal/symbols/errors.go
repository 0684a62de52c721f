package symbols

import (
	"fmt"
)

// UnknownTraitError reports a trait path that is not declared.
type UnknownTraitError struct {
	Path string
}

func (e *UnknownTraitError) Error() string {
	return fmt.Sprintf("unknown trait: %s", e.Path)
}

func NewUnknownTraitError(path string) *UnknownTraitError {
	return &UnknownTraitError{Path: path}
}
