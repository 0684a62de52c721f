package typesystem

import "fmt"

// SymbolNotFoundError indicates a symbol was not found
type SymbolNotFoundError struct {
	Name string
}

func (e *SymbolNotFoundError) Error() string {
	return fmt.Sprintf("symbol not found: %s", e.Name)
}

func NewSymbolNotFoundError(name string) *SymbolNotFoundError {
	return &SymbolNotFoundError{Name: name}
}

// TypeMismatchError is returned when two terms cannot be unified.
type TypeMismatchError struct {
	Left   Type
	Right  Type
	Reason string
}

func (e *TypeMismatchError) Error() string {
	if e.Left == nil || e.Right == nil {
		return fmt.Sprintf("type mismatch: %s", e.Reason)
	}
	return fmt.Sprintf("type mismatch: %s: %s vs %s", e.Reason, e.Left, e.Right)
}

// BinderArityError is returned when a binder is instantiated with the wrong
// number of arguments.
type BinderArityError struct {
	Rank int
	Args int
}

func (e *BinderArityError) Error() string {
	return fmt.Sprintf("binder of rank %d instantiated with %d arguments", e.Rank, e.Args)
}
