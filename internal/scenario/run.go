package scenario

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/funvibe/closig/internal/infer"
	"github.com/funvibe/closig/internal/symbols"
	"github.com/funvibe/closig/internal/typesystem"
)

// Result is the outcome of running one scenario.
type Result struct {
	Scenario *Scenario
	PassID   uuid.UUID

	// Signature is the closure's signature after deduction, fully resolved.
	Signature typesystem.Type
	// Expected is the expected type as built, nil without an expectation.
	Expected typesystem.Type
	Errors   []error
}

// Passed reports whether the result matches the scenario's wanted outcome.
// A scenario without a wanted signature only checks the error count.
func (r *Result) Passed() bool {
	return r.Mismatch() == ""
}

// Mismatch describes how the result differs from the wanted outcome.
func (r *Result) Mismatch() string {
	s := r.Scenario
	if s.Want != "" && r.Signature.String() != s.Want {
		return fmt.Sprintf("got %s, want %s", r.Signature, s.Want)
	}
	if len(r.Errors) != s.WantErrors {
		return fmt.Sprintf("got %d errors, want %d: %v", len(r.Errors), s.WantErrors, r.Errors)
	}
	return ""
}

// Runner runs scenarios against one trait table. Callable trait sets are
// cached across runs; a Runner may be used from several goroutines.
type Runner struct {
	DB    *symbols.TraitTable
	Cache *symbols.CallableTraitCache

	// Log receives the trace of every pass. Nil discards it.
	Log io.Writer
	mu  sync.Mutex // serializes writes to Log
}

// NewRunner creates a runner for db.
func NewRunner(db *symbols.TraitTable) *Runner {
	return &Runner{DB: db, Cache: symbols.NewCallableTraitCache(db)}
}

// Run executes one scenario in a fresh inference pass. The error reports a
// malformed scenario, not a failed deduction.
func (r *Runner) Run(s *Scenario) (*Result, error) {
	scope := symbols.ScopeID(s.Scope)
	if _, ok := r.DB.Scope(scope); !ok {
		return nil, fmt.Errorf("%s: %w", s.ID(), typesystem.NewSymbolNotFoundError(s.Scope))
	}

	var env *infer.TraitEnvironment
	if len(s.Where) > 0 {
		env = infer.NewTraitEnvironment(r.Cache, scope)
	}
	ctx := infer.NewInferenceContextWithEnv(r.Cache, scope, env)
	if r.Log != nil {
		ctx.SetLogOutput(&lockedWriter{mu: &r.mu, w: r.Log})
	}

	b := newBuilder(ctx.Table, r.DB, scope)
	for _, param := range slices.Sorted(maps.Keys(s.Where)) {
		clauses := s.Where[param]
		for i := range clauses {
			c, err := b.clause(&clauses[i], receiver{param: typesystem.TParam{Name: param}})
			if err != nil {
				return nil, fmt.Errorf("%s: where %s: %w", s.ID(), param, err)
			}
			env.AddClause(param, c)
		}
	}

	exp := infer.NoExpectation()
	var expected typesystem.Type
	if s.Expect != nil {
		t, err := b.typ(s.Expect, receiver{})
		if err != nil {
			return nil, fmt.Errorf("%s: expect: %w", s.ID(), err)
		}
		expected = t
		exp = infer.HasType(t)
	}

	closure, sig := ctx.NewClosure(s.Closure.Params)
	ctx.DeduceClosureType(closure, sig, exp)

	return &Result{
		Scenario:  s,
		PassID:    ctx.PassID,
		Signature: ctx.Table.Resolve(sig),
		Expected:  expected,
		Errors:    ctx.Errors,
	}, nil
}

// RunAll runs scenarios with up to workers passes in flight and returns
// the results in input order. It stops at the first malformed scenario.
func (r *Runner) RunAll(ctx context.Context, scenarios []*Scenario, workers int) ([]*Result, error) {
	results := make([]*Result, len(scenarios))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, s := range scenarios {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := r.Run(s)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
