package infer

import (
	"testing"

	"github.com/funvibe/closig/internal/config"
	"github.com/funvibe/closig/internal/symbols"
	ts "github.com/funvibe/closig/internal/typesystem"
)

var (
	i32   = ts.TCon{Name: "i32"}
	boolT = ts.TCon{Name: "bool"}
	self  = ts.TBound{Debruijn: 1, Index: 0}
)

// fixture is a trait table with three callable traits that each declare
// Output, plus a non-callable trait with an Output of its own.
type fixture struct {
	db *symbols.TraitTable

	byRef, byMut, byValue, add, send  ts.TraitID
	refOutput, valueOutput, addOutput ts.AssocTypeID
}

const (
	fixtureScope symbols.ScopeID = "core"
	emptyScope   symbols.ScopeID = "no_core"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{db: symbols.NewTraitTable()}
	f.byRef = f.db.DefineTrait("ops::ByRef", config.FnLangItem, "Output")
	f.byMut = f.db.DefineTrait("ops::ByMut", config.FnMutLangItem, "Output")
	f.byValue = f.db.DefineTrait("ops::ByValue", config.FnOnceLangItem, "Output")
	f.add = f.db.DefineTrait("ops::Add", "", "Output")
	f.send = f.db.DefineTrait("marker::Send", "")
	f.refOutput, _ = f.db.AssocType(f.byRef, "Output")
	f.valueOutput, _ = f.db.AssocType(f.byValue, "Output")
	f.addOutput, _ = f.db.AssocType(f.add, "Output")

	core, err := f.db.DefineScope(fixtureScope, "")
	if err != nil {
		t.Fatalf("DefineScope: %v", err)
	}
	core.BindLangItem(config.FnLangItem, "ops::ByRef")
	core.BindLangItem(config.FnMutLangItem, "ops::ByMut")
	core.BindLangItem(config.FnOnceLangItem, "ops::ByValue")
	if _, err := f.db.DefineScope(emptyScope, ""); err != nil {
		t.Fatalf("DefineScope: %v", err)
	}
	return f
}

// outputEq builds `<Self as Trait<args>>::Output == out` for a dyn bound.
func outputEq(rank int, assoc ts.AssocTypeID, args, out ts.Type) ts.Binders[ts.WhereClause] {
	return ts.NewBinders[ts.WhereClause](rank, ts.AliasEq{
		Alias: ts.Projection{AssocType: assoc, Subst: []ts.Type{self, args}},
		Ty:    out,
	})
}

func tuple(elems ...ts.Type) ts.TTuple {
	return ts.TTuple{Elements: elems}
}

func sig(rank int, ret ts.Type, params ...ts.Type) ts.Binders[ts.Signature] {
	if params == nil {
		params = []ts.Type{}
	}
	return ts.NewBinders(rank, ts.Signature{Sig: ts.DefaultFnSig, Params: params, ReturnType: ret})
}
