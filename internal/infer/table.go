package infer

import (
	"fmt"
	"maps"

	"github.com/funvibe/closig/internal/typesystem"
)

// Table is the unification table of one function-body inference pass. It
// owns the pass's type variables and their solutions and is the only place
// inference state is mutated. A Table is not safe for concurrent use; each
// pass owns its own.
type Table struct {
	counter int
	subst   typesystem.Subst
	env     *TraitEnvironment
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{subst: make(typesystem.Subst)}
}

// NewTableWithEnv creates a table whose coercions can see the where-clauses
// of env.
func NewTableWithEnv(env *TraitEnvironment) *Table {
	t := NewTable()
	t.env = env
	return t
}

// FreshVar generates a fresh type variable with a unique name.
func (t *Table) FreshVar() typesystem.TVar {
	t.counter++
	return typesystem.TVar{Name: fmt.Sprintf("t%d", t.counter)}
}

// VarCount returns the number of variables created so far.
func (t *Table) VarCount() int {
	return t.counter
}

// Bindings returns a copy of the current solutions.
func (t *Table) Bindings() typesystem.Subst {
	return maps.Clone(t.subst)
}

// Resolve substitutes the known solutions into ty. Variables without a
// solution are left in place.
func (t *Table) Resolve(ty typesystem.Type) typesystem.Type {
	if ty == nil {
		return nil
	}
	return ty.Apply(t.subst)
}

// Unify makes a and b equal, recording bindings for unresolved variables.
// On failure nothing is recorded.
func (t *Table) Unify(a, b typesystem.Type) error {
	s, err := typesystem.Unify(t.Resolve(a), t.Resolve(b))
	if err != nil {
		return err
	}
	t.record(s)
	return nil
}

// record adds new bindings. Existing bindings are never replaced: s only
// binds variables that were unresolved when it was computed.
func (t *Table) record(s typesystem.Subst) {
	if len(s) == 0 {
		return
	}
	t.subst = s.Compose(t.subst)
}
