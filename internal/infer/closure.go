package infer

import (
	"github.com/funvibe/closig/internal/symbols"
	"github.com/funvibe/closig/internal/typesystem"
)

// Deduce uses the expected type of a closure expression to constrain the
// closure's in-progress signature sigTy. closureTy is the closure's identity
// type.
//
// Having no expectation, or one that says nothing about the signature, is
// not an error. The returned error is a signature mismatch found after a
// signature was deduced; bindings made before it are kept.
func Deduce(table *Table, db TraitDatabase, scope symbols.ScopeID, closureTy, sigTy typesystem.Type, exp Expectation) error {
	return deduce(table, db, scope, closureTy, sigTy, exp, nil)
}

// DeduceClosureType runs Deduce on the pass's table and records a mismatch
// in ctx.Errors.
func (ctx *InferenceContext) DeduceClosureType(closureTy, sigTy typesystem.Type, exp Expectation) {
	ctx.Log.Printf("deducing %s from expectation %s", closureTy, exp)
	err := deduce(ctx.Table, ctx.DB, ctx.Scope, closureTy, sigTy, exp, ctx.Log.Printf)
	if err != nil {
		ctx.Log.Printf("signature mismatch for %s: %v", closureTy, err)
		ctx.addError(&ClosureSignatureError{Closure: closureTy, Err: err})
		return
	}
	ctx.Log.Printf("%s: %s", closureTy, ctx.Table.Resolve(sigTy))
}

func deduce(table *Table, db TraitDatabase, scope symbols.ScopeID, closureTy, sigTy typesystem.Type, exp Expectation, logf func(string, ...any)) error {
	expected, ok := exp.ToOption(table)
	if !ok {
		return nil
	}

	// Handles expected fn pointers and generic targets with callable bounds
	if _, err := table.Coerce(closureTy, expected); err != nil && logf != nil {
		logf("coercion to %s failed: %v", expected, err)
	}

	dyn, ok := expected.(typesystem.TDyn)
	if !ok || db == nil {
		return nil
	}
	sig, ok := DeduceSigFromDyn(db, scope, dyn)
	if !ok {
		if logf != nil {
			logf("no callable bound in %s", dyn)
		}
		return nil
	}
	return table.Unify(sigTy, typesystem.FnPointer(sig))
}
