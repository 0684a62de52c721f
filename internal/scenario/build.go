package scenario

import (
	"fmt"

	"github.com/funvibe/closig/internal/config"
	"github.com/funvibe/closig/internal/infer"
	"github.com/funvibe/closig/internal/symbols"
	"github.com/funvibe/closig/internal/typesystem"
)

// builder turns specs into type terms for one inference pass.
type builder struct {
	table *infer.Table
	db    *symbols.TraitTable
	scope symbols.ScopeID
	vars  map[string]typesystem.TVar
}

// receiver tells a spec what Self means where it appears.
type receiver struct {
	param typesystem.Type // Self of a where-clause
	inDyn bool
	depth int // binders between the use and the clause of the innermost dyn
}

func (r receiver) under(n int) receiver {
	r.depth += n
	return r
}

func newBuilder(table *infer.Table, db *symbols.TraitTable, scope symbols.ScopeID) *builder {
	return &builder{table: table, db: db, scope: scope, vars: make(map[string]typesystem.TVar)}
}

func (b *builder) types(specs []TypeSpec, r receiver) ([]typesystem.Type, error) {
	if specs == nil {
		return nil, nil
	}
	out := make([]typesystem.Type, len(specs))
	for i := range specs {
		t, err := b.typ(&specs[i], r)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func (b *builder) typ(s *TypeSpec, r receiver) (typesystem.Type, error) {
	switch s.Kind {
	case KindCon:
		return typesystem.TCon{Name: s.Name}, nil
	case KindVar:
		if s.Name == "" {
			return b.table.FreshVar(), nil
		}
		v, ok := b.vars[s.Name]
		if !ok {
			v = b.table.FreshVar()
			b.vars[s.Name] = v
		}
		return v, nil
	case KindUnknown:
		return typesystem.TError{}, nil
	case KindBound:
		return typesystem.TBound{Debruijn: s.Bound[0], Index: s.Bound[1]}, nil
	case KindSelf:
		switch {
		case r.param != nil:
			return r.param, nil
		case r.inDyn:
			return typesystem.TBound{Debruijn: r.depth + 1, Index: 0}, nil
		}
		return nil, fmt.Errorf("Self used outside a bound")
	case KindParam:
		return typesystem.TParam{Name: s.Name}, nil
	case KindTuple:
		elems, err := b.types(s.Elems, r)
		if err != nil {
			return nil, err
		}
		return typesystem.TTuple{Elements: elems}, nil
	case KindRef:
		elem, err := b.typ(s.Elem, r)
		if err != nil {
			return nil, err
		}
		return typesystem.TRef{Mutable: s.Mutable, Elem: elem}, nil
	case KindApp:
		args, err := b.types(s.Elems, r)
		if err != nil {
			return nil, err
		}
		return typesystem.TApp{Constructor: typesystem.TCon{Name: s.Name}, Args: args}, nil
	case KindFunc:
		return b.fn(s, r)
	case KindFnItem:
		fn, err := b.fn(s, r)
		if err != nil {
			return nil, err
		}
		return typesystem.TFnDef{Name: s.Name, Sig: fn}, nil
	case KindDyn:
		clauses := make([]typesystem.Binders[typesystem.WhereClause], len(s.Clauses))
		for i := range s.Clauses {
			c, err := b.clause(&s.Clauses[i], receiver{inDyn: true})
			if err != nil {
				return nil, fmt.Errorf("dyn bound %d: %w", i, err)
			}
			clauses[i] = c
		}
		return typesystem.NewDyn(clauses...), nil
	}
	return nil, fmt.Errorf("unknown type kind %d", s.Kind)
}

func (b *builder) fn(s *TypeSpec, r receiver) (typesystem.TFunc, error) {
	// The pointer opens a binder level of its own
	inner := r.under(1)
	params, err := b.types(s.Elems, inner)
	if err != nil {
		return typesystem.TFunc{}, err
	}
	if params == nil {
		params = []typesystem.Type{}
	}
	var ret typesystem.Type = typesystem.TTuple{}
	if s.Elem != nil {
		if ret, err = b.typ(s.Elem, inner); err != nil {
			return typesystem.TFunc{}, err
		}
	}

	fn := typesystem.NewFunc(params, ret)
	fn.NumBinders = s.Binders
	fn.Sig.Variadic = s.Variadic
	if s.Unsafe {
		fn.Sig.Safety = typesystem.Unsafe
	}
	if s.ExternC {
		fn.Sig.ABI = typesystem.ABIC
	}
	return fn, nil
}

func (b *builder) clause(c *ClauseSpec, r receiver) (typesystem.Binders[typesystem.WhereClause], error) {
	var none typesystem.Binders[typesystem.WhereClause]
	forms := 0
	for _, set := range []bool{c.Eq != nil, c.Implemented != nil, c.Opaque != nil} {
		if set {
			forms++
		}
	}
	if forms != 1 {
		return none, fmt.Errorf("clause must have exactly one of eq, implemented or opaque")
	}

	self, err := b.typ(&TypeSpec{Kind: KindSelf}, r)
	if err != nil {
		return none, err
	}

	switch {
	case c.Implemented != nil:
		trait, subst, err := b.traitRef(c.Implemented, self, r)
		if err != nil {
			return none, err
		}
		return typesystem.NewBinders[typesystem.WhereClause](c.Rank, typesystem.Implemented{Trait: trait, Subst: subst}), nil

	case c.Opaque != nil:
		ty, err := b.typ(&c.Opaque.Ty, r)
		if err != nil {
			return none, err
		}
		return typesystem.NewBinders[typesystem.WhereClause](c.Rank, typesystem.AliasEq{
			Alias: typesystem.Opaque{ID: c.Opaque.ID, Subst: []typesystem.Type{self}},
			Ty:    ty,
		}), nil
	}

	trait, subst, err := b.traitRef(&c.Eq.TraitRefSpec, self, r)
	if err != nil {
		return none, err
	}
	name := c.Eq.Assoc
	if name == "" {
		name = config.FnOutputAssocName
	}
	assoc, ok := b.db.AssocType(trait, name)
	if !ok {
		return none, fmt.Errorf("trait %s has no associated type %s", c.Eq.Trait, name)
	}
	ty, err := b.typ(&c.Eq.Ty, r)
	if err != nil {
		return none, err
	}
	return typesystem.NewBinders[typesystem.WhereClause](c.Rank, typesystem.AliasEq{
		Alias: typesystem.Projection{AssocType: assoc, Subst: subst},
		Ty:    ty,
	}), nil
}

func (b *builder) traitRef(ref *TraitRefSpec, self typesystem.Type, r receiver) (typesystem.TraitID, []typesystem.Type, error) {
	trait, ok := b.db.ResolvePath(b.scope, ref.Trait)
	if !ok {
		return 0, nil, symbols.NewUnknownTraitError(ref.Trait)
	}
	args, err := b.types(ref.Args, r)
	if err != nil {
		return 0, nil, err
	}
	return trait, append([]typesystem.Type{self}, args...), nil
}
