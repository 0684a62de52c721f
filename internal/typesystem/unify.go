package typesystem

import (
	"fmt"
	"reflect"
)

// Unify attempts to find a substitution that makes t1 and t2 equal.
// It enforces strict equality (invariant). The error placeholder unifies with
// every term and produces no bindings.
func Unify(t1, t2 Type) (Subst, error) {
	return unifyInternal(t1, t2)
}

func unifyInternal(t1, t2 Type) (Subst, error) {
	if t1 == nil || t2 == nil {
		return nil, errMismatch("missing type")
	}

	// If types are strictly equal
	if reflect.DeepEqual(t1, t2) {
		return Subst{}, nil
	}

	_, err1 := t1.(TError)
	_, err2 := t2.(TError)
	if err1 || err2 {
		return Subst{}, nil
	}

	// A variable on the right binds the left term, unless both are variables
	// in which case the left one is bound below.
	if tv, ok := t2.(TVar); ok {
		if _, isVar := t1.(TVar); !isVar {
			return Bind(tv, t1)
		}
	}

	switch t1 := t1.(type) {
	case TVar:
		return Bind(t1, t2)
	case TCon:
		if t2, ok := t2.(TCon); ok && t1.Name == t2.Name {
			return Subst{}, nil
		}
		return nil, errUnifyMsg(t1, t2, "type constant mismatch")
	case TParam:
		if t2, ok := t2.(TParam); ok && t1.Name == t2.Name {
			return Subst{}, nil
		}
		return nil, errUnifyMsg(t1, t2, "generic parameter mismatch")
	case TBound:
		if t2, ok := t2.(TBound); ok && t1 == t2 {
			return Subst{}, nil
		}
		return nil, errUnifyMsg(t1, t2, "bound variable mismatch")
	case TApp:
		other, ok := t2.(TApp)
		if !ok || t1.Constructor.Name != other.Constructor.Name {
			return nil, errUnify(t1, t2)
		}
		if len(t1.Args) != len(other.Args) {
			return nil, errMismatch(fmt.Sprintf("type arguments length mismatch: %d vs %d", len(t1.Args), len(other.Args)))
		}
		return unifySeq(t1.Args, other.Args)
	case TTuple:
		other, ok := t2.(TTuple)
		if !ok {
			return nil, errUnifyMsg(t1, t2, "cannot unify tuple")
		}
		if len(t1.Elements) != len(other.Elements) {
			return nil, errMismatch(fmt.Sprintf("tuple length mismatch: %d vs %d", len(t1.Elements), len(other.Elements)))
		}
		return unifySeq(t1.Elements, other.Elements)
	case TFunc:
		other, ok := t2.(TFunc)
		if !ok {
			return nil, errUnifyMsg(t1, t2, "cannot unify function type")
		}
		return unifyFunc(t1, other)
	case TRef:
		other, ok := t2.(TRef)
		if !ok {
			return nil, errUnifyMsg(t1, t2, "cannot unify reference")
		}
		if t1.Mutable != other.Mutable {
			return nil, errUnifyMsg(t1, t2, "reference mutability mismatch")
		}
		return unifyInternal(t1.Elem, other.Elem)
	case TFnDef:
		other, ok := t2.(TFnDef)
		if !ok || t1.Name != other.Name {
			return nil, errUnify(t1, t2)
		}
		return unifyFunc(t1.Sig, other.Sig)
	case TClosure:
		other, ok := t2.(TClosure)
		if !ok || t1.ID != other.ID {
			return nil, errUnify(t1, t2)
		}
		return unifyInternal(t1.Sig, other.Sig)
	case TDyn:
		other, ok := t2.(TDyn)
		if !ok {
			return nil, errUnifyMsg(t1, t2, "cannot unify dynamic type")
		}
		return unifyDyn(t1, other)
	default:
		return nil, errMismatch(fmt.Sprintf("unknown type kind: %T", t1))
	}
}

func unifySeq(xs, ys []Type) (Subst, error) {
	s1 := Subst{}
	for i := range xs {
		s2, err := unifyInternal(xs[i].Apply(s1), ys[i].Apply(s1))
		if err != nil {
			return nil, err
		}
		s1 = s1.Compose(s2)
	}
	return s1, nil
}

func unifyFunc(t1, t2 TFunc) (Subst, error) {
	if t1.NumBinders != t2.NumBinders {
		return nil, errMismatch(fmt.Sprintf("function binder count mismatch: %d vs %d", t1.NumBinders, t2.NumBinders))
	}
	if t1.Sig.Variadic != t2.Sig.Variadic {
		return nil, errMismatch("cannot unify variadic function with non-variadic")
	}
	if t1.Sig.Safety != t2.Sig.Safety {
		return nil, errMismatch("cannot unify safe function with unsafe")
	}
	if t1.Sig.ABI != t2.Sig.ABI {
		return nil, errMismatch("function ABI mismatch")
	}
	if len(t1.Params) != len(t2.Params) {
		return nil, errMismatch(fmt.Sprintf("function parameter count mismatch: %d vs %d", len(t1.Params), len(t2.Params)))
	}
	s1, err := unifySeq(t1.Params, t2.Params)
	if err != nil {
		return nil, err
	}
	if t1.ReturnType == nil || t2.ReturnType == nil {
		return nil, errMismatch("function without return type")
	}
	s2, err := unifyInternal(t1.ReturnType.Apply(s1), t2.ReturnType.Apply(s1))
	if err != nil {
		return nil, errUnifyContext("return type", err)
	}
	return s1.Compose(s2), nil
}

func unifyDyn(t1, t2 TDyn) (Subst, error) {
	b1, b2 := t1.Bounds.Value, t2.Bounds.Value
	if t1.Bounds.Rank != t2.Bounds.Rank || len(b1) != len(b2) {
		return nil, errUnifyMsg(t1, t2, "bound list mismatch")
	}
	s1 := Subst{}
	for i := range b1 {
		if b1[i].Rank != b2[i].Rank {
			return nil, errUnifyMsg(t1, t2, "bound binder mismatch")
		}
		s2, err := unifyClause(b1[i].Value.Apply(s1), b2[i].Value.Apply(s1))
		if err != nil {
			return nil, errUnifyContext(fmt.Sprintf("bound %d of %s", i, t1), err)
		}
		s1 = s1.Compose(s2)
	}
	return s1, nil
}

func unifyClause(c1, c2 WhereClause) (Subst, error) {
	switch c1 := c1.(type) {
	case Implemented:
		other, ok := c2.(Implemented)
		if !ok || c1.Trait != other.Trait || len(c1.Subst) != len(other.Subst) {
			return nil, errMismatch(fmt.Sprintf("clause mismatch: %s vs %s", c1, c2))
		}
		return unifySeq(c1.Subst, other.Subst)
	case AliasEq:
		other, ok := c2.(AliasEq)
		if !ok {
			return nil, errMismatch(fmt.Sprintf("clause mismatch: %s vs %s", c1, c2))
		}
		lhs1, lhs2 := c1.Alias.freeVars(), other.Alias.freeVars()
		if !sameAlias(c1.Alias, other.Alias) || len(lhs1) != len(lhs2) {
			return nil, errMismatch(fmt.Sprintf("clause mismatch: %s vs %s", c1, c2))
		}
		return unifySeq(append(append([]Type{}, lhs1...), c1.Ty), append(append([]Type{}, lhs2...), other.Ty))
	default:
		return nil, errMismatch(fmt.Sprintf("unknown clause kind: %T", c1))
	}
}

func sameAlias(a1, a2 Alias) bool {
	switch a1 := a1.(type) {
	case Projection:
		a2, ok := a2.(Projection)
		return ok && a1.AssocType == a2.AssocType
	case Opaque:
		a2, ok := a2.(Opaque)
		return ok && a1.ID == a2.ID
	}
	return false
}

// Bind binds a type variable to a type, performing the occurs check.
func Bind(tv TVar, t Type) (Subst, error) {
	// If t is the same variable, return empty substitution
	if tVal, ok := t.(TVar); ok && tVal.Name == tv.Name {
		return Subst{}, nil
	}

	// Occurs check: ensure tv does not appear in t (to avoid infinite types like a = Vec<a>)
	if OccursCheck(tv, t) {
		return nil, errMismatch(fmt.Sprintf("infinite type detected: %s in %s", tv, t))
	}

	return Subst{tv.Name: t}, nil
}

// OccursCheck returns true if tv appears free in t.
func OccursCheck(tv TVar, t Type) bool {
	for _, v := range t.FreeTypeVariables() {
		if v.Name == tv.Name {
			return true
		}
	}
	return false
}

func errUnify(t1, t2 Type) error {
	return &TypeMismatchError{Left: t1, Right: t2, Reason: "cannot unify"}
}

func errUnifyMsg(t1, t2 Type, msg string) error {
	return &TypeMismatchError{Left: t1, Right: t2, Reason: msg}
}

func errMismatch(msg string) error {
	return &TypeMismatchError{Reason: msg}
}

func errUnifyContext(ctx string, err error) error {
	return fmt.Errorf("in %s: %w", ctx, err)
}
