package typesystem

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/closig/internal/config"
)

// Type is the interface for all type terms seen by closure inference.
// The set of implementations is closed: every switch over a Type must
// handle each of the variants declared in this file.
type Type interface {
	String() string
	Apply(Subst) Type
	FreeTypeVariables() []TVar
	foldBound(depth int, f boundFolder) Type
}

// TVar is an inference (unification) variable, e.g. 't1'.
type TVar struct {
	Name string
}

func (t TVar) String() string {
	// Normalize auto-generated variables (t1, t2, ...) so test output is stable
	if config.IsTestMode && strings.HasPrefix(t.Name, "t") {
		if _, err := strconv.Atoi(t.Name[1:]); err == nil {
			return "t?"
		}
	}
	return t.Name
}

func (t TVar) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TVar) FreeTypeVariables() []TVar {
	return []TVar{t}
}

// TError is the placeholder for a type that could not be determined.
// It unifies with everything without producing bindings.
type TError struct{}

func (TError) String() string {
	return "{unknown}"
}

func (t TError) Apply(Subst) Type {
	return t
}

func (TError) FreeTypeVariables() []TVar {
	return nil
}

func (t TError) foldBound(int, boundFolder) Type {
	return t
}

// TCon is a nominal type without arguments (e.g. i32, bool, String).
type TCon struct {
	Name string
}

func (t TCon) String() string {
	return t.Name
}

func (t TCon) Apply(Subst) Type {
	return t
}

func (TCon) FreeTypeVariables() []TVar {
	return nil
}

func (t TCon) foldBound(int, boundFolder) Type {
	return t
}

// TApp is a nominal type applied to arguments (e.g. Vec<i32>).
type TApp struct {
	Constructor TCon
	Args        []Type
}

func (t TApp) String() string {
	if len(t.Args) == 0 {
		return t.Constructor.String()
	}
	return fmt.Sprintf("%s<%s>", t.Constructor, joinTypes(t.Args, ", "))
}

func (t TApp) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TApp) FreeTypeVariables() []TVar {
	return freeVarsOf(t.Args...)
}

// TParam is a rigid generic parameter of the definition being checked.
type TParam struct {
	Name string
}

func (t TParam) String() string {
	return t.Name
}

func (t TParam) Apply(Subst) Type {
	return t
}

func (TParam) FreeTypeVariables() []TVar {
	return nil
}

func (t TParam) foldBound(int, boundFolder) Type {
	return t
}

// TBound refers to a variable bound by an enclosing binder. Debruijn counts
// binder levels outwards from the use site, Index selects the slot.
type TBound struct {
	Debruijn int
	Index    int
}

func (t TBound) String() string {
	return fmt.Sprintf("^%d.%d", t.Debruijn, t.Index)
}

func (t TBound) Apply(Subst) Type {
	return t
}

func (TBound) FreeTypeVariables() []TVar {
	return nil
}

// TTuple represents a tuple type (e.g. (i32, bool)).
type TTuple struct {
	Elements []Type
}

func (t TTuple) String() string {
	if len(t.Elements) == 1 {
		return fmt.Sprintf("(%s,)", t.Elements[0])
	}
	return fmt.Sprintf("(%s)", joinTypes(t.Elements, ", "))
}

func (t TTuple) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TTuple) FreeTypeVariables() []TVar {
	return freeVarsOf(t.Elements...)
}

// ABI is the calling convention of a function pointer.
type ABI int

const (
	ABIDefault ABI = iota
	ABIC
)

// Safety is the call mode of a function pointer.
type Safety int

const (
	Safe Safety = iota
	Unsafe
)

// FnSig holds the calling-convention markers of a function pointer.
type FnSig struct {
	ABI      ABI
	Safety   Safety
	Variadic bool
}

// DefaultFnSig is the marker set used for signatures deduced from callable
// trait bounds, which never carry a custom ABI or variadic parameters.
var DefaultFnSig = FnSig{ABI: ABIDefault, Safety: Safe, Variadic: false}

// Signature is the shape of a callable: parameters, return type and markers.
type Signature struct {
	Sig        FnSig
	Params     []Type
	ReturnType Type
}

// TFunc is a function pointer. It opens one binder level with NumBinders
// slots; the number of parameters is fixed when the pointer is built.
type TFunc struct {
	NumBinders int
	Signature
}

// NewFunc builds a function pointer with default markers and no binders.
func NewFunc(params []Type, ret Type) TFunc {
	return TFunc{Signature: Signature{Sig: DefaultFnSig, Params: params, ReturnType: ret}}
}

// FnPointer turns a bound signature into a function pointer of the same rank.
func FnPointer(sig Binders[Signature]) TFunc {
	return TFunc{NumBinders: sig.Rank, Signature: sig.Value}
}

func (t TFunc) String() string {
	var sb strings.Builder
	if t.NumBinders > 0 {
		fmt.Fprintf(&sb, "for<%d> ", t.NumBinders)
	}
	if t.Sig.Safety == Unsafe {
		sb.WriteString("unsafe ")
	}
	if t.Sig.ABI == ABIC {
		sb.WriteString(`extern "C" `)
	}
	params := make([]string, 0, len(t.Params)+1)
	for _, p := range t.Params {
		params = append(params, p.String())
	}
	if t.Sig.Variadic {
		params = append(params, "...")
	}
	fmt.Fprintf(&sb, "fn(%s) -> %s", strings.Join(params, ", "), t.ReturnType)
	return sb.String()
}

func (t TFunc) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TFunc) FreeTypeVariables() []TVar {
	return freeVarsOf(append(append([]Type{}, t.Params...), t.ReturnType)...)
}

// TRef is a reference type (&T or &mut T).
type TRef struct {
	Mutable bool
	Elem    Type
}

func (t TRef) String() string {
	if t.Mutable {
		return "&mut " + t.Elem.String()
	}
	return "&" + t.Elem.String()
}

func (t TRef) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TRef) FreeTypeVariables() []TVar {
	return t.Elem.FreeTypeVariables()
}

// TFnDef is the zero-sized type of a named function item. It decays to a
// function pointer with the item's signature.
type TFnDef struct {
	Name string
	Sig  TFunc
}

func (t TFnDef) String() string {
	return fmt.Sprintf("fn %s(%s) -> %s", t.Name, joinTypes(t.Sig.Params, ", "), t.Sig.ReturnType)
}

func (t TFnDef) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TFnDef) FreeTypeVariables() []TVar {
	return t.Sig.FreeTypeVariables()
}

// TClosure is the identity type of one closure expression. Sig is the
// closure's in-progress signature, usually a TFunc over fresh variables.
type TClosure struct {
	ID  int
	Sig Type
}

func (t TClosure) String() string {
	return fmt.Sprintf("{closure#%d}", t.ID)
}

func (t TClosure) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TClosure) FreeTypeVariables() []TVar {
	return t.Sig.FreeTypeVariables()
}

// TDyn is a dynamic trait object. The outer binder has rank 1 and binds the
// erased receiver type; each clause carries its own binder.
type TDyn struct {
	Bounds Binders[QuantifiedWhereClauses]
}

// NewDyn wraps clauses in the receiver binder.
func NewDyn(clauses ...Binders[WhereClause]) TDyn {
	return TDyn{Bounds: NewBinders(1, QuantifiedWhereClauses(clauses))}
}

func (t TDyn) String() string {
	parts := make([]string, 0, len(t.Bounds.Value))
	for _, b := range t.Bounds.Value {
		s := b.Value.String()
		if b.Rank > 0 {
			s = fmt.Sprintf("for<%d> %s", b.Rank, s)
		}
		parts = append(parts, s)
	}
	return "dyn " + strings.Join(parts, " + ")
}

func (t TDyn) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TDyn) FreeTypeVariables() []TVar {
	var vars []TVar
	for _, b := range t.Bounds.Value {
		vars = append(vars, b.Value.FreeTypeVariables()...)
	}
	return uniqueTVars(vars)
}

// ApplyWithCycleCheck applies substitution with cycle detection.
// This is the main entry point for substitution application.
func ApplyWithCycleCheck(t Type, s Subst, visited map[string]bool) Type {
	if t == nil {
		return nil
	}

	switch typ := t.(type) {
	case TVar:
		if visited[typ.Name] {
			return typ // Break cycle - return the variable as-is
		}
		if replacement, ok := s[typ.Name]; ok {
			if tv, ok := replacement.(TVar); ok && tv.Name == typ.Name {
				return typ
			}
			newVisited := copyVisited(visited)
			newVisited[typ.Name] = true
			return ApplyWithCycleCheck(replacement, s, newVisited)
		}
		return typ

	case TApp:
		return TApp{Constructor: typ.Constructor, Args: applyAll(typ.Args, s, visited)}

	case TTuple:
		return TTuple{Elements: applyAll(typ.Elements, s, visited)}

	case TFunc:
		return TFunc{
			NumBinders: typ.NumBinders,
			Signature: Signature{
				Sig:        typ.Sig,
				Params:     applyAll(typ.Params, s, visited),
				ReturnType: ApplyWithCycleCheck(typ.ReturnType, s, visited),
			},
		}

	case TRef:
		return TRef{Mutable: typ.Mutable, Elem: ApplyWithCycleCheck(typ.Elem, s, visited)}

	case TFnDef:
		sig, _ := ApplyWithCycleCheck(typ.Sig, s, visited).(TFunc)
		return TFnDef{Name: typ.Name, Sig: sig}

	case TClosure:
		return TClosure{ID: typ.ID, Sig: ApplyWithCycleCheck(typ.Sig, s, visited)}

	case TDyn:
		clauses := make(QuantifiedWhereClauses, len(typ.Bounds.Value))
		for i, b := range typ.Bounds.Value {
			clauses[i] = NewBinders(b.Rank, b.Value.Apply(s))
		}
		return TDyn{Bounds: NewBinders(typ.Bounds.Rank, clauses)}

	case TError, TCon, TParam, TBound:
		return typ

	default:
		return t
	}
}

func applyAll(ts []Type, s Subst, visited map[string]bool) []Type {
	if ts == nil {
		return nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = ApplyWithCycleCheck(t, s, visited)
	}
	return out
}

func copyVisited(m map[string]bool) map[string]bool {
	newMap := make(map[string]bool, len(m))
	for k, v := range m {
		newMap[k] = v
	}
	return newMap
}

// Subst is a mapping from type variable names to types.
type Subst map[string]Type

// Compose combines two substitutions.
func (s1 Subst) Compose(s2 Subst) Subst {
	subst := Subst{}
	for k, v := range s2 {
		subst[k] = v
	}
	for k, v := range s1 {
		subst[k] = v.Apply(s2)
	}
	return subst
}

func freeVarsOf(ts ...Type) []TVar {
	var vars []TVar
	for _, t := range ts {
		if t != nil {
			vars = append(vars, t.FreeTypeVariables()...)
		}
	}
	return uniqueTVars(vars)
}

func uniqueTVars(vars []TVar) []TVar {
	unique := []TVar{}
	seen := map[string]bool{}
	for _, v := range vars {
		if !seen[v.Name] {
			seen[v.Name] = true
			unique = append(unique, v)
		}
	}
	return unique
}

func joinTypes(ts []Type, sep string) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, sep)
}
