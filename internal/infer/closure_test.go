package infer

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/funvibe/closig/internal/symbols"
	ts "github.com/funvibe/closig/internal/typesystem"
)

func TestDeduceFromDyn(t *testing.T) {
	f := newFixture(t)
	ctx := NewInferenceContext(f.db, fixtureScope)
	closure, closureSig := ctx.NewClosure(2)
	dyn := ts.NewDyn(outputEq(0, f.valueOutput, tuple(i32, boolT), boolT))

	ctx.DeduceClosureType(closure, closureSig, HasType(dyn))
	if len(ctx.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}

	resolved := ctx.Table.Resolve(closureSig)
	if vars := resolved.FreeTypeVariables(); len(vars) != 0 {
		t.Errorf("unresolved variables remain: %v", vars)
	}
	if err := ctx.Table.Unify(closureSig, ts.NewFunc([]ts.Type{i32, boolT}, boolT)); err != nil {
		t.Errorf("deduced signature does not match fn(i32, bool) -> bool: %v", err)
	}
}

func TestDeduceIdempotent(t *testing.T) {
	f := newFixture(t)
	dyn := ts.NewDyn(outputEq(0, f.refOutput, tuple(i32), boolT))

	once := NewInferenceContext(f.db, fixtureScope)
	c1, s1 := once.NewClosure(1)
	once.DeduceClosureType(c1, s1, HasType(dyn))

	twice := NewInferenceContext(f.db, fixtureScope)
	c2, s2 := twice.NewClosure(1)
	twice.DeduceClosureType(c2, s2, HasType(dyn))
	twice.DeduceClosureType(c2, s2, HasType(dyn))

	if diff := cmp.Diff(once.Table.Bindings(), twice.Table.Bindings()); diff != "" {
		t.Errorf("second deduction changed bindings (-once +twice):\n%s", diff)
	}
	if len(twice.Errors) != 0 {
		t.Errorf("unexpected errors: %v", twice.Errors)
	}
}

func TestDeduceNoExpectation(t *testing.T) {
	f := newFixture(t)
	table := NewTable()
	a := table.FreshVar()
	if err := table.Unify(a, i32); err != nil {
		t.Fatal(err)
	}
	closureSig := ts.NewFunc([]ts.Type{table.FreshVar()}, table.FreshVar())
	closure := ts.TClosure{ID: 1, Sig: closureSig}

	vars, bindings := table.VarCount(), table.Bindings()
	if err := Deduce(table, f.db, fixtureScope, closure, closureSig, NoExpectation()); err != nil {
		t.Fatalf("Deduce() error = %v", err)
	}
	if table.VarCount() != vars {
		t.Errorf("VarCount() = %d, want %d", table.VarCount(), vars)
	}
	if diff := cmp.Diff(bindings, table.Bindings()); diff != "" {
		t.Errorf("bindings changed (-before +after):\n%s", diff)
	}
}

func TestDeduceNothingToLearn(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name     string
		expected ts.Type
	}{
		{"non-callable dyn", ts.NewDyn(ts.NewBinders[ts.WhereClause](0, ts.Implemented{Trait: f.send, Subst: []ts.Type{self}}))},
		{"unknown", ts.TError{}},
		{"non-callable equality first", ts.NewDyn(
			outputEq(0, f.addOutput, tuple(i32), i32),
			outputEq(0, f.valueOutput, tuple(i32, boolT), boolT),
		)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewInferenceContext(f.db, fixtureScope)
			closure, closureSig := ctx.NewClosure(2)
			ctx.DeduceClosureType(closure, closureSig, HasType(tt.expected))
			if len(ctx.Errors) != 0 {
				t.Errorf("unexpected errors: %v", ctx.Errors)
			}
			if len(ctx.Table.Bindings()) != 0 {
				t.Errorf("unexpected bindings: %v", ctx.Table.Bindings())
			}
		})
	}
}

func TestDeduceFromPointer(t *testing.T) {
	f := newFixture(t)
	ctx := NewInferenceContext(f.db, fixtureScope)
	closure, closureSig := ctx.NewClosure(1)

	ctx.DeduceClosureType(closure, closureSig, HasType(ts.NewFunc([]ts.Type{ts.TRef{Elem: i32}}, boolT)))
	if len(ctx.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}
	if s := ctx.Table.Resolve(closureSig).String(); s != "fn(&i32) -> bool" {
		t.Errorf("signature = %s", s)
	}
}

func TestDeduceFromWhereClause(t *testing.T) {
	f := newFixture(t)
	param := ts.TParam{Name: "F"}
	env := NewTraitEnvironment(f.db, fixtureScope)
	env.AddClause("F", ts.NewBinders[ts.WhereClause](0, ts.AliasEq{
		Alias: ts.Projection{AssocType: f.refOutput, Subst: []ts.Type{param, tuple(boolT, i32)}},
		Ty:    i32,
	}))

	ctx := NewInferenceContextWithEnv(f.db, fixtureScope, env)
	closure, closureSig := ctx.NewClosure(2)
	ctx.DeduceClosureType(closure, closureSig, HasType(param))

	if s := ctx.Table.Resolve(closureSig).String(); s != "fn(bool, i32) -> i32" {
		t.Errorf("signature = %s", s)
	}
}

func TestDeduceMismatchIsRecorded(t *testing.T) {
	f := newFixture(t)
	ctx := NewInferenceContext(f.db, fixtureScope)
	closure, closureSig := ctx.NewClosure(1)
	dyn := ts.NewDyn(outputEq(0, f.valueOutput, tuple(i32, boolT), boolT))

	ctx.DeduceClosureType(closure, closureSig, HasType(dyn))
	if len(ctx.Errors) != 1 {
		t.Fatalf("Errors = %v, want one mismatch", ctx.Errors)
	}

	var sigErr *ClosureSignatureError
	if !errors.As(ctx.Errors[0], &sigErr) {
		t.Fatalf("error %T is not a *ClosureSignatureError", ctx.Errors[0])
	}
	var mismatch *ts.TypeMismatchError
	if !errors.As(ctx.Errors[0], &mismatch) {
		t.Errorf("error does not wrap *TypeMismatchError: %v", ctx.Errors[0])
	}
	if len(ctx.Table.Bindings()) != 0 {
		t.Errorf("failed deduction left bindings: %v", ctx.Table.Bindings())
	}
}

func TestDeduceHigherRankedBound(t *testing.T) {
	// for<'a> FnOnce(&'a i32) -> &'a i32 becomes a pointer with one binder
	f := newFixture(t)
	ref := ts.TRef{Elem: ts.TBound{Debruijn: 0, Index: 0}}
	dyn := ts.NewDyn(outputEq(1, f.valueOutput, tuple(ref), ref))

	table := NewTable()
	closureSig := ts.TFunc{NumBinders: 1, Signature: ts.Signature{
		Sig:        ts.DefaultFnSig,
		Params:     []ts.Type{table.FreshVar()},
		ReturnType: table.FreshVar(),
	}}
	closure := ts.TClosure{ID: 1, Sig: closureSig}

	if err := Deduce(table, f.db, fixtureScope, closure, closureSig, HasType(dyn)); err != nil {
		t.Fatalf("Deduce() error = %v", err)
	}
	want := ts.TFunc{NumBinders: 1, Signature: ts.Signature{Sig: ts.DefaultFnSig, Params: []ts.Type{ref}, ReturnType: ref}}
	if diff := cmp.Diff(ts.Type(want), table.Resolve(closureSig)); diff != "" {
		t.Errorf("signature mismatch (-want +got):\n%s", diff)
	}
}

func TestDeduceLogsWithPassID(t *testing.T) {
	f := newFixture(t)
	ctx := NewInferenceContext(f.db, fixtureScope)
	var buf bytes.Buffer
	ctx.SetLogOutput(&buf)

	closure, closureSig := ctx.NewClosure(0)
	ctx.DeduceClosureType(closure, closureSig, HasType(ts.NewDyn(outputEq(0, f.valueOutput, tuple(), i32))))

	out := buf.String()
	if !strings.Contains(out, ctx.PassID.String()[:8]) {
		t.Errorf("log output lacks pass ID:\n%s", out)
	}
	if !strings.Contains(out, "fn() -> i32") {
		t.Errorf("log output lacks deduced signature:\n%s", out)
	}
}

func TestDeduceConcurrentPasses(t *testing.T) {
	f := newFixture(t)
	cache := symbols.NewCallableTraitCache(f.db)

	const passes = 16
	results := make([]string, passes)
	var wg sync.WaitGroup
	for i := range passes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := NewInferenceContext(cache, fixtureScope)
			closure, closureSig := ctx.NewClosure(1)
			arg := ts.TCon{Name: fmt.Sprintf("T%d", i)}
			ctx.DeduceClosureType(closure, closureSig, HasType(ts.NewDyn(outputEq(0, f.valueOutput, tuple(arg), arg))))
			results[i] = ctx.Table.Resolve(closureSig).String()
		}()
	}
	wg.Wait()

	for i, got := range results {
		if want := fmt.Sprintf("fn(T%d) -> T%d", i, i); got != want {
			t.Errorf("pass %d: got %s, want %s", i, got, want)
		}
	}
	if cache.Len() != 1 {
		t.Errorf("cache holds %d scopes, want 1", cache.Len())
	}
}
