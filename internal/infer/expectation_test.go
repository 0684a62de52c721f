package infer

import (
	"testing"

	ts "github.com/funvibe/closig/internal/typesystem"
)

func TestExpectation(t *testing.T) {
	table := NewTable()
	a := table.FreshVar()
	if err := table.Unify(a, i32); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		exp    Expectation
		want   ts.Type
		wantOk bool
	}{
		{"none", NoExpectation(), nil, false},
		{"nil type", HasType(nil), nil, false},
		{"concrete", HasType(boolT), boolT, true},
		{"resolved through table", HasType(ts.TRef{Elem: a}), ts.TRef{Elem: i32}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.exp.ToOption(table)
			if ok != tt.wantOk || got != tt.want {
				t.Errorf("ToOption() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOk)
			}
			if tt.exp.IsNone() == tt.wantOk {
				t.Errorf("IsNone() = %v", tt.exp.IsNone())
			}
		})
	}
}
