package infer

import (
	"fmt"

	"github.com/funvibe/closig/internal/typesystem"
)

// ClosureSignatureError reports that a closure's signature does not match
// the signature deduced from its expected type.
type ClosureSignatureError struct {
	Closure typesystem.Type
	Err     error
}

func (e *ClosureSignatureError) Error() string {
	return fmt.Sprintf("closure %s does not match expected signature: %v", e.Closure, e.Err)
}

func (e *ClosureSignatureError) Unwrap() error {
	return e.Err
}
