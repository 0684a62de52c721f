package scenario

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/funvibe/closig/internal/symbols"
	"github.com/funvibe/closig/internal/typesystem"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	db, err := symbols.GetPrelude()
	if err != nil {
		t.Fatalf("GetPrelude: %v", err)
	}
	return NewRunner(db)
}

func TestTestdata(t *testing.T) {
	files, err := Collect([]string{"testdata"})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no scenario files in testdata")
	}

	runner := newTestRunner(t)
	for _, file := range files {
		scenarios, err := Load(file)
		if err != nil {
			t.Fatal(err)
		}
		for _, s := range scenarios {
			t.Run(s.ID(), func(t *testing.T) {
				res, err := runner.Run(s)
				if err != nil {
					t.Fatalf("Run() error = %v", err)
				}
				if !res.Passed() {
					t.Error(res.Mismatch())
				}
			})
		}
	}
}

func TestTypeSpec(t *testing.T) {
	self := typesystem.TBound{Debruijn: 1, Index: 0}
	tests := []struct {
		name  string
		input string
		want  typesystem.Type
	}{
		{"constant", `i32`, typesystem.TCon{Name: "i32"}},
		{"unit", `()`, typesystem.TTuple{}},
		{"unknown", `"{unknown}"`, typesystem.TError{}},
		{"bound", `^2.1`, typesystem.TBound{Debruijn: 2, Index: 1}},
		{"tuple", `[i32, bool]`, typesystem.TTuple{Elements: []typesystem.Type{typesystem.TCon{Name: "i32"}, typesystem.TCon{Name: "bool"}}}},
		{"explicit tuple", `{tuple: [i32]}`, typesystem.TTuple{Elements: []typesystem.Type{typesystem.TCon{Name: "i32"}}}},
		{"mutable reference", `{ref_mut: u8}`, typesystem.TRef{Mutable: true, Elem: typesystem.TCon{Name: "u8"}}},
		{"param", `{param: T}`, typesystem.TParam{Name: "T"}},
		{"app", `{app: {ctor: Box, args: [i32]}}`, typesystem.TApp{Constructor: typesystem.TCon{Name: "Box"}, Args: []typesystem.Type{typesystem.TCon{Name: "i32"}}}},
		{
			"pointer markers",
			`{fn: {params: [i32], unsafe: true, abi: C, variadic: true, binders: 1}}`,
			typesystem.TFunc{NumBinders: 1, Signature: typesystem.Signature{
				Sig:        typesystem.FnSig{ABI: typesystem.ABIC, Safety: typesystem.Unsafe, Variadic: true},
				Params:     []typesystem.Type{typesystem.TCon{Name: "i32"}},
				ReturnType: typesystem.TTuple{},
			}},
		},
		{
			"function item",
			`{fn_item: {name: f, params: [], ret: bool}}`,
			typesystem.TFnDef{Name: "f", Sig: typesystem.NewFunc([]typesystem.Type{}, typesystem.TCon{Name: "bool"})},
		},
		{
			"receiver inside pointer",
			`{dyn: [{implemented: {trait: core::marker::Send, args: [{fn: {params: [Self]}}]}}]}`,
			typesystem.NewDyn(typesystem.NewBinders[typesystem.WhereClause](0, typesystem.Implemented{
				Trait: 5,
				Subst: []typesystem.Type{self, typesystem.NewFunc([]typesystem.Type{typesystem.TBound{Debruijn: 2, Index: 0}}, typesystem.TTuple{})},
			})),
		},
	}

	runner := newTestRunner(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenarios, err := Parse([]byte("closure: {params: 0}\nexpect: "+tt.input+"\n"), "inline.yaml")
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			res, err := runner.Run(scenarios[0])
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, res.Expected); diff != "" {
				t.Errorf("expected type mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNamedVariablesAreShared(t *testing.T) {
	scenarios, err := Parse([]byte("closure: {params: 0}\nexpect: [\"?a\", _, \"?a\"]\n"), "vars.yaml")
	if err != nil {
		t.Fatal(err)
	}
	res, err := newTestRunner(t).Run(scenarios[0])
	if err != nil {
		t.Fatal(err)
	}
	tuple := res.Expected.(typesystem.TTuple)
	if tuple.Elements[0] != tuple.Elements[2] || tuple.Elements[0] == tuple.Elements[1] {
		t.Errorf("variables = %v", tuple.Elements)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"empty", ``, "no scenarios"},
		{"unknown field", "closure: {params: 1}\nexpected: i32\n", "expected"},
		{"two type keys", "closure: {params: 1}\nexpect: {ref: i32, param: T}\n", "exactly one key"},
		{"unknown form", "closure: {params: 1}\nexpect: {box: i32}\n", `unknown type form "box"`},
		{"bad bound", "closure: {params: 1}\nexpect: ^x.1\n", "malformed bound variable"},
		{"bad abi", "closure: {params: 1}\nexpect: {fn: {params: [], abi: stdcall}}\n", `unknown ABI "stdcall"`},
		{"negative arity", "closure: {params: -1}\n", "negative closure parameter count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input), "bad.yaml")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"unknown scope", "scope: nowhere\nclosure: {params: 1}\n", "symbol not found: nowhere"},
		{"unknown trait", "closure: {params: 1}\nexpect: {dyn: [{implemented: {trait: a::B}}]}\n", "unknown trait: a::B"},
		{"unknown assoc", "closure: {params: 1}\nexpect: {dyn: [{eq: {trait: core::marker::Send, ty: i32}}]}\n", "no associated type Output"},
		{"receiver outside bound", "closure: {params: 1}\nexpect: Self\n", "Self used outside a bound"},
		{"clause without form", "closure: {params: 1}\nexpect: {dyn: [{rank: 1}]}\n", "exactly one of"},
	}
	runner := newTestRunner(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenarios, err := Parse([]byte(tt.input), "bad.yaml")
			if err != nil {
				t.Fatal(err)
			}
			_, err = runner.Run(scenarios[0])
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Run() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestUnknownTraitIsTyped(t *testing.T) {
	scenarios, err := Parse([]byte("closure: {params: 1}\nwhere: {F: [{implemented: {trait: x::Y}}]}\n"), "bad.yaml")
	if err != nil {
		t.Fatal(err)
	}
	_, err = newTestRunner(t).Run(scenarios[0])
	var unknown *symbols.UnknownTraitError
	if !errors.As(err, &unknown) || unknown.Path != "x::Y" {
		t.Errorf("Run() error = %v, want *UnknownTraitError", err)
	}
}

func TestRunAll(t *testing.T) {
	scenarios, err := Load(filepath.Join("testdata", "dyn.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	runner := newTestRunner(t)
	results, err := runner.RunAll(context.Background(), scenarios, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(scenarios) {
		t.Fatalf("got %d results for %d scenarios", len(results), len(scenarios))
	}
	seen := map[string]bool{}
	for i, res := range results {
		if res.Scenario != scenarios[i] {
			t.Errorf("result %d belongs to %s", i, res.Scenario.ID())
		}
		if seen[res.PassID.String()] {
			t.Errorf("pass ID %s reused", res.PassID)
		}
		seen[res.PassID.String()] = true
	}
}

func TestRunAllStopsOnMalformed(t *testing.T) {
	scenarios, err := Parse([]byte("closure: {params: 1}\n---\nscope: nowhere\nclosure: {params: 1}\n"), "mixed.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := newTestRunner(t).RunAll(context.Background(), scenarios, 1); err == nil {
		t.Error("RunAll() accepted a malformed scenario")
	}
}
