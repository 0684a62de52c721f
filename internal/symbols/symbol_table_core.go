package symbols

import (
	"github.com/funvibe/closig/internal/typesystem"
)

// ScopeID names a compilation-unit scope (a crate in the prelude).
type ScopeID string

// TraitData describes a declared trait.
type TraitData struct {
	ID          typesystem.TraitID
	Path        string // canonical path
	Lang        string // lang item name, empty if none
	AssocTypes  []typesystem.AssocTypeID
	Supertraits []typesystem.TraitID
}

// AssocTypeData describes an associated type and the trait declaring it.
type AssocTypeData struct {
	ID    typesystem.AssocTypeID
	Name  string
	Trait typesystem.TraitID
}

// TraitTable stores trait declarations and the scopes that can see them.
// It is built once and then only read, so it may be shared by inference
// passes running on different goroutines.
type TraitTable struct {
	traits     []TraitData
	byPath     map[string]typesystem.TraitID
	assocTypes []AssocTypeData
	scopes     map[ScopeID]*Scope
}

// NewTraitTable creates an empty trait table.
func NewTraitTable() *TraitTable {
	return &TraitTable{
		byPath: make(map[string]typesystem.TraitID),
		scopes: make(map[ScopeID]*Scope),
	}
}

// TraitCount returns the number of declared traits.
func (t *TraitTable) TraitCount() int {
	return len(t.traits)
}
