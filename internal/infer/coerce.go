package infer

import (
	"github.com/funvibe/closig/internal/symbols"
	"github.com/funvibe/closig/internal/typesystem"
)

// TraitEnvironment holds the where-clauses in scope for the generic
// parameters of the definition being checked.
type TraitEnvironment struct {
	DB    TraitDatabase
	Scope symbols.ScopeID

	clauses map[string]typesystem.QuantifiedWhereClauses
}

// NewTraitEnvironment creates an empty environment.
func NewTraitEnvironment(db TraitDatabase, scope symbols.ScopeID) *TraitEnvironment {
	return &TraitEnvironment{
		DB:      db,
		Scope:   scope,
		clauses: make(map[string]typesystem.QuantifiedWhereClauses),
	}
}

// AddClause records a clause whose receiver slot holds the parameter.
func (e *TraitEnvironment) AddClause(param string, clause typesystem.Binders[typesystem.WhereClause]) {
	e.clauses[param] = append(e.clauses[param], clause)
}

// ClausesFor returns the clauses recorded for a parameter, in order.
func (e *TraitEnvironment) ClausesFor(param string) typesystem.QuantifiedWhereClauses {
	return e.clauses[param]
}

func (e *TraitEnvironment) callableSignature(param string) (typesystem.Binders[typesystem.Signature], bool) {
	clauses := e.ClausesFor(param)
	if len(clauses) == 0 || e.DB == nil {
		return typesystem.Binders[typesystem.Signature]{}, false
	}
	return matchCallableBound(clauses, e.DB.CallableTraits(e.Scope), e.DB)
}

// Coerce adjusts actual to fit expected using the built-in coercion rules,
// falling back to plain unification. It returns the type the value has
// after coercion, or actual unchanged together with the error on failure.
// Callers may treat the failure as non-fatal: nothing is recorded for it.
func (t *Table) Coerce(actual, expected typesystem.Type) (typesystem.Type, error) {
	from, to := t.Resolve(actual), t.Resolve(expected)

	switch to := to.(type) {
	case typesystem.TVar:
		return t.unifyCoerced(from, to, actual)
	case typesystem.TError:
		return to, nil
	}
	if _, ok := from.(typesystem.TError); ok {
		return to, nil
	}

	switch to := to.(type) {
	case typesystem.TRef:
		if ref, ok := from.(typesystem.TRef); ok {
			return t.coerceRef(ref, to, actual)
		}
	case typesystem.TDyn:
		if unsizes(from) {
			return to, nil
		}
	case typesystem.TFunc:
		switch f := from.(type) {
		case typesystem.TFnDef:
			// Function item decays to a pointer
			return t.unifyCoerced(f.Sig, to, actual)
		case typesystem.TClosure:
			return t.coerceClosureToFnPtr(f, to, actual)
		}
	case typesystem.TParam:
		if c, ok := from.(typesystem.TClosure); ok && t.env != nil {
			if sig, ok := t.env.callableSignature(to.Name); ok {
				if err := t.Unify(c.Sig, typesystem.FnPointer(sig)); err != nil {
					return actual, err
				}
				return to, nil
			}
		}
	}
	return t.unifyCoerced(from, to, actual)
}

func (t *Table) unifyCoerced(from, to, actual typesystem.Type) (typesystem.Type, error) {
	if err := t.Unify(from, to); err != nil {
		return actual, err
	}
	return t.Resolve(to), nil
}

// coerceRef handles reborrowing (&mut T to &T) and unsizing behind a reference.
func (t *Table) coerceRef(from, to typesystem.TRef, actual typesystem.Type) (typesystem.Type, error) {
	if to.Mutable && !from.Mutable {
		return actual, &typesystem.TypeMismatchError{Left: from, Right: to, Reason: "cannot coerce shared reference to mutable"}
	}
	if _, ok := t.Resolve(to.Elem).(typesystem.TDyn); ok && unsizes(t.Resolve(from.Elem)) {
		return to, nil
	}
	if err := t.Unify(from.Elem, to.Elem); err != nil {
		return actual, err
	}
	return t.Resolve(to), nil
}

// coerceClosureToFnPtr unifies the closure's signature with the pointer,
// taking the calling-convention markers from the pointer.
func (t *Table) coerceClosureToFnPtr(c typesystem.TClosure, to typesystem.TFunc, actual typesystem.Type) (typesystem.Type, error) {
	sig := t.Resolve(c.Sig)
	if fn, ok := sig.(typesystem.TFunc); ok {
		fn.Sig = to.Sig
		sig = fn
	}
	if err := t.Unify(sig, to); err != nil {
		return actual, err
	}
	return t.Resolve(to), nil
}

// unsizes reports whether a value of type ty may be coerced to a dynamic
// type. Whether ty actually implements the bounds is checked elsewhere.
func unsizes(ty typesystem.Type) bool {
	switch ty.(type) {
	case typesystem.TDyn, typesystem.TVar:
		return false
	}
	return true
}
