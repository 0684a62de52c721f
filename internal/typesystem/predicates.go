package typesystem

import "fmt"

// TraitID identifies a trait declaration independently of the path it is
// reachable under in a given scope.
type TraitID int

// AssocTypeID identifies an associated type declared by some trait.
type AssocTypeID int

// WhereClause is a predicate attached to a dynamic type or a generic
// environment. Substitutions inside a clause use slot 0 for the receiver
// (Self) and the remaining slots for the trait's own type arguments.
type WhereClause interface {
	String() string
	Apply(Subst) WhereClause
	FreeTypeVariables() []TVar
	foldBound(depth int, f boundFolder) WhereClause
}

// Implemented is the clause `Self: Trait<Args>`.
type Implemented struct {
	Trait TraitID
	Subst []Type
}

func (c Implemented) String() string {
	return traitRefString(fmt.Sprintf("trait#%d", c.Trait), c.Subst)
}

func (c Implemented) Apply(s Subst) WhereClause {
	return Implemented{Trait: c.Trait, Subst: applyAll(c.Subst, s, map[string]bool{})}
}

func (c Implemented) FreeTypeVariables() []TVar {
	return freeVarsOf(c.Subst...)
}

func (c Implemented) foldBound(depth int, f boundFolder) WhereClause {
	return Implemented{Trait: c.Trait, Subst: foldAll(c.Subst, depth, f)}
}

// Alias is the left-hand side of an AliasEq clause.
type Alias interface {
	String() string
	apply(Subst) Alias
	freeVars() []Type
	foldAlias(depth int, f boundFolder) Alias
}

// Projection names an associated type of a trait, e.g. `<Self as FnOnce<(A,)>>::Output`.
type Projection struct {
	AssocType AssocTypeID
	Subst     []Type
}

func (p Projection) String() string {
	return fmt.Sprintf("<%s>::assoc#%d", traitRefString("_", p.Subst), p.AssocType)
}

func (p Projection) apply(s Subst) Alias {
	return Projection{AssocType: p.AssocType, Subst: applyAll(p.Subst, s, map[string]bool{})}
}

func (p Projection) freeVars() []Type { return p.Subst }

func (p Projection) foldAlias(depth int, f boundFolder) Alias {
	return Projection{AssocType: p.AssocType, Subst: foldAll(p.Subst, depth, f)}
}

// Opaque refers to an opaque (existential return) type.
type Opaque struct {
	ID    int
	Subst []Type
}

func (o Opaque) String() string {
	return fmt.Sprintf("opaque#%d<%s>", o.ID, joinTypes(o.Subst, ", "))
}

func (o Opaque) apply(s Subst) Alias {
	return Opaque{ID: o.ID, Subst: applyAll(o.Subst, s, map[string]bool{})}
}

func (o Opaque) freeVars() []Type { return o.Subst }

func (o Opaque) foldAlias(depth int, f boundFolder) Alias {
	return Opaque{ID: o.ID, Subst: foldAll(o.Subst, depth, f)}
}

// AliasEq is the clause `Alias == Ty`.
type AliasEq struct {
	Alias Alias
	Ty    Type
}

func (c AliasEq) String() string {
	return fmt.Sprintf("%s == %s", c.Alias, c.Ty)
}

func (c AliasEq) Apply(s Subst) WhereClause {
	return AliasEq{Alias: c.Alias.apply(s), Ty: c.Ty.Apply(s)}
}

func (c AliasEq) FreeTypeVariables() []TVar {
	return freeVarsOf(append(append([]Type{}, c.Alias.freeVars()...), c.Ty)...)
}

func (c AliasEq) foldBound(depth int, f boundFolder) WhereClause {
	return AliasEq{Alias: c.Alias.foldAlias(depth, f), Ty: c.Ty.foldBound(depth, f)}
}

func traitRefString(trait string, subst []Type) string {
	if len(subst) == 0 {
		return trait
	}
	if len(subst) == 1 {
		return fmt.Sprintf("%s as %s", subst[0], trait)
	}
	return fmt.Sprintf("%s as %s<%s>", subst[0], trait, joinTypes(subst[1:], ", "))
}
