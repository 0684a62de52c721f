package typesystem

// Binders pairs a term with the number of placeholder slots it still has
// open. Terms taken out of a binder must be re-wrapped at the same Rank.
type Binders[T any] struct {
	Rank  int
	Value T
}

// NewBinders wraps value in a binder with rank open slots.
func NewBinders[T any](rank int, value T) Binders[T] {
	return Binders[T]{Rank: rank, Value: value}
}

// SkipBinders returns the wrapped value without instantiating it. Bound
// variables inside keep referring to this binder, so the caller must put the
// result back under a binder of the same rank.
func (b Binders[T]) SkipBinders() T {
	return b.Value
}

// boundFolder rewrites one bound variable found at the given binder depth.
type boundFolder func(bv TBound, depth int) Type

type bindable[T any] interface {
	foldBound(depth int, f boundFolder) T
}

// Substitute instantiates the outermost binder of b with args. Variables
// bound further out are shifted down by one level; nested binders inside
// the value are preserved with their ranks.
func Substitute[T bindable[T]](b Binders[T], args []Type) (T, error) {
	if len(args) != b.Rank {
		var zero T
		return zero, &BinderArityError{Rank: b.Rank, Args: len(args)}
	}
	return b.Value.foldBound(0, func(bv TBound, depth int) Type {
		switch {
		case bv.Debruijn == depth:
			if bv.Index < 0 || bv.Index >= len(args) {
				return TError{}
			}
			return ShiftIn(args[bv.Index], depth)
		case bv.Debruijn > depth:
			return TBound{Debruijn: bv.Debruijn - 1, Index: bv.Index}
		}
		return bv
	}), nil
}

// ShiftIn moves every variable bound outside t by n binder levels, for
// placing t underneath n additional binders.
func ShiftIn(t Type, n int) Type {
	if n == 0 || t == nil {
		return t
	}
	return t.foldBound(0, func(bv TBound, depth int) Type {
		if bv.Debruijn >= depth {
			return TBound{Debruijn: bv.Debruijn + n, Index: bv.Index}
		}
		return bv
	})
}

func foldAll(ts []Type, depth int, f boundFolder) []Type {
	if ts == nil {
		return nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = t.foldBound(depth, f)
	}
	return out
}

func (t TVar) foldBound(int, boundFolder) Type { return t }

func (t TBound) foldBound(depth int, f boundFolder) Type {
	return f(t, depth)
}

func (t TApp) foldBound(depth int, f boundFolder) Type {
	return TApp{Constructor: t.Constructor, Args: foldAll(t.Args, depth, f)}
}

func (t TTuple) foldBound(depth int, f boundFolder) Type {
	return TTuple{Elements: foldAll(t.Elements, depth, f)}
}

func (t TFunc) foldBound(depth int, f boundFolder) Type {
	return t.foldFunc(depth, f)
}

func (t TFunc) foldFunc(depth int, f boundFolder) TFunc {
	var ret Type
	if t.ReturnType != nil {
		ret = t.ReturnType.foldBound(depth+1, f)
	}
	return TFunc{
		NumBinders: t.NumBinders,
		Signature: Signature{
			Sig:        t.Sig,
			Params:     foldAll(t.Params, depth+1, f),
			ReturnType: ret,
		},
	}
}

func (t TRef) foldBound(depth int, f boundFolder) Type {
	return TRef{Mutable: t.Mutable, Elem: t.Elem.foldBound(depth, f)}
}

func (t TFnDef) foldBound(depth int, f boundFolder) Type {
	return TFnDef{Name: t.Name, Sig: t.Sig.foldFunc(depth, f)}
}

func (t TClosure) foldBound(depth int, f boundFolder) Type {
	return TClosure{ID: t.ID, Sig: t.Sig.foldBound(depth, f)}
}

func (t TDyn) foldBound(depth int, f boundFolder) Type {
	return TDyn{Bounds: NewBinders(t.Bounds.Rank, t.Bounds.Value.foldBound(depth+1, f))}
}

// QuantifiedWhereClauses is a list of clauses, each under its own binder.
type QuantifiedWhereClauses []Binders[WhereClause]

func (q QuantifiedWhereClauses) foldBound(depth int, f boundFolder) QuantifiedWhereClauses {
	out := make(QuantifiedWhereClauses, len(q))
	for i, b := range q {
		out[i] = NewBinders(b.Rank, b.Value.foldBound(depth+1, f))
	}
	return out
}
