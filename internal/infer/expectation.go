package infer

import (
	"github.com/funvibe/closig/internal/typesystem"
)

// Expectation is the type expected at an expression's use site, if any.
type Expectation struct {
	ty typesystem.Type
}

// NoExpectation is the empty expectation.
func NoExpectation() Expectation {
	return Expectation{}
}

// HasType expects ty. A nil ty is the same as NoExpectation.
func HasType(ty typesystem.Type) Expectation {
	return Expectation{ty: ty}
}

// IsNone reports whether nothing is expected.
func (e Expectation) IsNone() bool {
	return e.ty == nil
}

// ToOption returns the expected type with the table's current solutions
// applied, or false if nothing is expected.
func (e Expectation) ToOption(table *Table) (typesystem.Type, bool) {
	if e.ty == nil {
		return nil, false
	}
	return table.Resolve(e.ty), true
}

func (e Expectation) String() string {
	if e.ty == nil {
		return "none"
	}
	return e.ty.String()
}
