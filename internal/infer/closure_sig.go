package infer

import (
	"slices"

	"github.com/funvibe/closig/internal/symbols"
	"github.com/funvibe/closig/internal/typesystem"
)

// TraitDatabase is the read-only trait information closure inference needs.
type TraitDatabase interface {
	// CallableTraits returns the Fn, FnMut and FnOnce traits visible in
	// scope (those that exist), in that order.
	CallableTraits(scope symbols.ScopeID) []typesystem.TraitID
	// AssociatedTypeTrait returns the trait declaring an associated type.
	AssociatedTypeTrait(id typesystem.AssocTypeID) (typesystem.TraitID, bool)
}

// DeduceSigFromDyn searches the bounds of a dynamic type for a clause like
// `<Self as FnX<Args>>::Output == Ret` and returns `fn(Args...) -> Ret`
// under the clause's binder.
func DeduceSigFromDyn(db TraitDatabase, scope symbols.ScopeID, dyn typesystem.TDyn) (typesystem.Binders[typesystem.Signature], bool) {
	fnTraits := db.CallableTraits(scope)

	bounds, err := typesystem.Substitute(dyn.Bounds, []typesystem.Type{typesystem.TError{}})
	if err != nil {
		return typesystem.Binders[typesystem.Signature]{}, false
	}
	return matchCallableBound(bounds, fnTraits, db)
}

// matchCallableBound returns the signature described by the first
// associated-type equality in bounds. Clauses of other kinds are skipped,
// but an equality whose trait is not callable ends the search with no
// result even if a later clause would match.
// TODO: decide whether non-callable equalities should be skipped instead;
// callers currently rely on the search stopping there.
func matchCallableBound(bounds typesystem.QuantifiedWhereClauses, fnTraits []typesystem.TraitID, db TraitDatabase) (typesystem.Binders[typesystem.Signature], bool) {
	var none typesystem.Binders[typesystem.Signature]

	for _, bound := range bounds {
		// The extracted types are rebound by the returned signature's binder
		eq, ok := bound.SkipBinders().(typesystem.AliasEq)
		if !ok {
			continue
		}
		projection, ok := eq.Alias.(typesystem.Projection)
		if !ok {
			continue
		}

		trait, ok := db.AssociatedTypeTrait(projection.AssocType)
		if !ok || !slices.Contains(fnTraits, trait) {
			return none, false
		}

		// Skip Self, get the argument tuple
		if len(projection.Subst) < 2 {
			return none, false
		}
		args, ok := projection.Subst[1].(typesystem.TTuple)
		if !ok {
			return none, false
		}

		params := slices.Clone(args.Elements)
		if params == nil {
			params = []typesystem.Type{}
		}
		return typesystem.NewBinders(bound.Rank, typesystem.Signature{
			Sig:        typesystem.DefaultFnSig,
			Params:     params,
			ReturnType: eq.Ty,
		}), true
	}
	return none, false
}
