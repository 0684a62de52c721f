package scenario

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// TypeKind selects the variant a TypeSpec describes.
type TypeKind int

const (
	KindCon TypeKind = iota
	KindVar
	KindUnknown
	KindBound
	KindSelf
	KindTuple
	KindFunc
	KindRef
	KindDyn
	KindApp
	KindParam
	KindFnItem
)

// TypeSpec is a type term as written in a scenario file.
//
// Scalars: a type name (i32), "_" for a fresh variable, "?x" for a variable
// shared by every "?x" in the scenario, "{unknown}", "()", "Self" for the
// receiver of the enclosing bound and "^d.i" for a bound variable.
// A sequence is a tuple. A mapping has exactly one of the keys tuple, fn,
// fn_item, ref, ref_mut, dyn, app or param.
type TypeSpec struct {
	Kind TypeKind
	// Name of a constant, named variable, parameter, constructor or function item
	Name string
	// Elems holds tuple elements, type arguments or parameters
	Elems   []TypeSpec
	Elem    *TypeSpec // referent or return type
	Mutable bool
	Bound   [2]int // debruijn, index

	Unsafe   bool
	ExternC  bool
	Variadic bool
	Binders  int

	Clauses []ClauseSpec
}

// ClauseSpec is a where-clause on a dyn type or a generic parameter. Self is
// inserted as the first trait argument.
type ClauseSpec struct {
	// Rank is the number of variables the clause binds itself (for<...>).
	Rank        int           `yaml:"rank,omitempty"`
	Eq          *EqSpec       `yaml:"eq,omitempty"`
	Implemented *TraitRefSpec `yaml:"implemented,omitempty"`
	Opaque      *OpaqueSpec   `yaml:"opaque,omitempty"`
}

// TraitRefSpec names a trait and its arguments after Self.
type TraitRefSpec struct {
	Trait string     `yaml:"trait"`
	Args  []TypeSpec `yaml:"args,omitempty"`
}

// EqSpec is `<Self as Trait<Args>>::Assoc == Ty`. Assoc defaults to Output.
type EqSpec struct {
	TraitRefSpec `yaml:",inline"`
	Assoc        string   `yaml:"assoc,omitempty"`
	Ty           TypeSpec `yaml:"ty"`
}

// OpaqueSpec is `opaque#ID<Self> == Ty`.
type OpaqueSpec struct {
	ID int      `yaml:"id"`
	Ty TypeSpec `yaml:"ty"`
}

type fnSpec struct {
	Params   []TypeSpec `yaml:"params"`
	Ret      *TypeSpec  `yaml:"ret,omitempty"`
	Unsafe   bool       `yaml:"unsafe,omitempty"`
	ABI      string     `yaml:"abi,omitempty"`
	Variadic bool       `yaml:"variadic,omitempty"`
	Binders  int        `yaml:"binders,omitempty"`
}

type fnItemSpec struct {
	Name   string     `yaml:"name"`
	Params []TypeSpec `yaml:"params"`
	Ret    *TypeSpec  `yaml:"ret,omitempty"`
}

type appSpec struct {
	Ctor string     `yaml:"ctor"`
	Args []TypeSpec `yaml:"args"`
}

func (t *TypeSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return t.parseScalar(node)
	case yaml.SequenceNode:
		t.Kind = KindTuple
		return node.Decode(&t.Elems)
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: type mapping must have exactly one key", node.Line)
		}
		return t.parseMapping(node.Content[0].Value, node.Content[1])
	}
	return fmt.Errorf("line %d: cannot decode type", node.Line)
}

func (t *TypeSpec) parseScalar(node *yaml.Node) error {
	v := strings.TrimSpace(node.Value)
	switch {
	case v == "":
		return fmt.Errorf("line %d: empty type", node.Line)
	case v == "_":
		t.Kind = KindVar
	case strings.HasPrefix(v, "?"):
		t.Kind, t.Name = KindVar, v[1:]
	case v == "{unknown}":
		t.Kind = KindUnknown
	case v == "()":
		t.Kind = KindTuple
	case v == "Self":
		t.Kind = KindSelf
	case strings.HasPrefix(v, "^"):
		d, i, ok := strings.Cut(v[1:], ".")
		debruijn, err1 := strconv.Atoi(d)
		index, err2 := strconv.Atoi(i)
		if !ok || err1 != nil || err2 != nil || debruijn < 0 || index < 0 {
			return fmt.Errorf("line %d: malformed bound variable %q", node.Line, v)
		}
		t.Kind, t.Bound = KindBound, [2]int{debruijn, index}
	default:
		t.Kind, t.Name = KindCon, v
	}
	return nil
}

func (t *TypeSpec) parseMapping(key string, value *yaml.Node) error {
	switch key {
	case "tuple":
		t.Kind = KindTuple
		return value.Decode(&t.Elems)
	case "ref", "ref_mut":
		t.Kind, t.Mutable = KindRef, key == "ref_mut"
		t.Elem = &TypeSpec{}
		return value.Decode(t.Elem)
	case "param":
		t.Kind = KindParam
		return value.Decode(&t.Name)
	case "dyn":
		t.Kind = KindDyn
		return value.Decode(&t.Clauses)
	case "app":
		var app appSpec
		if err := value.Decode(&app); err != nil {
			return err
		}
		t.Kind, t.Name, t.Elems = KindApp, app.Ctor, app.Args
	case "fn":
		var fn fnSpec
		if err := value.Decode(&fn); err != nil {
			return err
		}
		switch fn.ABI {
		case "", "rust":
		case "C":
			t.ExternC = true
		default:
			return fmt.Errorf("line %d: unknown ABI %q", value.Line, fn.ABI)
		}
		t.Kind, t.Elems, t.Elem = KindFunc, fn.Params, fn.Ret
		t.Unsafe, t.Variadic, t.Binders = fn.Unsafe, fn.Variadic, fn.Binders
	case "fn_item":
		var item fnItemSpec
		if err := value.Decode(&item); err != nil {
			return err
		}
		t.Kind, t.Name, t.Elems, t.Elem = KindFnItem, item.Name, item.Params, item.Ret
	default:
		return fmt.Errorf("line %d: unknown type form %q", value.Line, key)
	}
	return nil
}
