package symbols

import (
	"fmt"
	"sync"

	"github.com/funvibe/closig/internal/config"
)

// Singleton prelude table built from the embedded default prelude
var (
	preludeTable *TraitTable
	preludeErr   error
	preludeOnce  sync.Once
)

// GetPrelude returns the singleton trait table built from the default
// prelude. The table is read-only and shared by every caller.
func GetPrelude() (*TraitTable, error) {
	preludeOnce.Do(func() {
		p, err := config.DefaultPrelude()
		if err != nil {
			preludeErr = err
			return
		}
		preludeTable, preludeErr = NewTraitTableFromPrelude(p)
	})
	return preludeTable, preludeErr
}

// ResetPrelude resets the prelude singleton (for testing only).
func ResetPrelude() {
	preludeOnce = sync.Once{}
	preludeTable = nil
	preludeErr = nil
}

// NewTraitTableFromPrelude builds a trait table from a validated prelude.
func NewTraitTableFromPrelude(p *config.Prelude) (*TraitTable, error) {
	t := NewTraitTable()
	for _, decl := range p.Traits {
		t.DefineTrait(decl.Path, decl.Lang, decl.AssocTypes...)
	}
	for _, decl := range p.Traits {
		id, _ := t.TraitByPath(decl.Path)
		for _, super := range decl.Supertraits {
			superID, ok := t.TraitByPath(super)
			if !ok {
				return nil, fmt.Errorf("trait %s: %w", decl.Path, NewUnknownTraitError(super))
			}
			t.AddSupertrait(id, superID)
		}
	}

	// Parents may be declared after their children
	pending := append([]config.ScopeDecl(nil), p.Scopes...)
	for len(pending) > 0 {
		var next []config.ScopeDecl
		for _, decl := range pending {
			if decl.Parent != "" {
				if _, ok := t.Scope(ScopeID(decl.Parent)); !ok {
					next = append(next, decl)
					continue
				}
			}
			s, err := t.DefineScope(ScopeID(decl.Name), ScopeID(decl.Parent))
			if err != nil {
				return nil, err
			}
			for alias, target := range decl.Aliases {
				s.Alias(alias, target)
			}
			for lang, path := range decl.LangItems {
				s.BindLangItem(lang, path)
			}
		}
		if len(next) == len(pending) {
			return nil, fmt.Errorf("scope %q: parent %q is never defined", next[0].Name, next[0].Parent)
		}
		pending = next
	}
	return t, nil
}
