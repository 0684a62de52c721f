package infer

import (
	"io"
	"log"

	"github.com/google/uuid"

	"github.com/funvibe/closig/internal/symbols"
	"github.com/funvibe/closig/internal/typesystem"
)

// InferenceContext holds the state of one function-body inference pass.
// Passes for different definitions may run on different goroutines, but a
// context and its Table belong to exactly one of them.
type InferenceContext struct {
	// PassID tags log output of this pass
	PassID uuid.UUID
	Table  *Table
	DB     TraitDatabase
	Scope  symbols.ScopeID
	// Errors collects type mismatches found during the pass, in order
	Errors []error
	Log    *log.Logger

	closures int
}

// NewInferenceContext creates a pass over the given trait database. Logging
// is discarded until Log is replaced.
func NewInferenceContext(db TraitDatabase, scope symbols.ScopeID) *InferenceContext {
	return NewInferenceContextWithEnv(db, scope, nil)
}

// NewInferenceContextWithEnv creates a pass whose coercions see the
// where-clauses of env.
func NewInferenceContextWithEnv(db TraitDatabase, scope symbols.ScopeID, env *TraitEnvironment) *InferenceContext {
	id := uuid.New()
	return &InferenceContext{
		PassID: id,
		Table:  NewTableWithEnv(env),
		DB:     db,
		Scope:  scope,
		Log:    log.New(io.Discard, "["+id.String()[:8]+"] ", 0),
	}
}

// NewClosure creates the identity type of a closure expression with the
// given number of parameters. The returned signature holds a fresh variable
// for every parameter and for the return type.
func (ctx *InferenceContext) NewClosure(arity int) (typesystem.TClosure, typesystem.TFunc) {
	params := make([]typesystem.Type, arity)
	for i := range params {
		params[i] = ctx.Table.FreshVar()
	}
	sig := typesystem.NewFunc(params, ctx.Table.FreshVar())

	ctx.closures++
	return typesystem.TClosure{ID: ctx.closures, Sig: sig}, sig
}

// SetLogOutput sends the pass's log to w.
func (ctx *InferenceContext) SetLogOutput(w io.Writer) {
	ctx.Log.SetOutput(w)
}

func (ctx *InferenceContext) addError(err error) {
	ctx.Errors = append(ctx.Errors, err)
}
