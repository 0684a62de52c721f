package symbols

import (
	"fmt"

	"github.com/funvibe/closig/internal/config"
	"github.com/funvibe/closig/internal/typesystem"
)

// Scope is a compilation-unit scope. Lookups that miss fall back to the
// outer scope.
type Scope struct {
	id        ScopeID
	outer     *Scope
	langItems map[string]string // lang item → path as seen from this scope
	aliases   map[string]string // re-exported path → canonical path
}

// ID returns the scope's identifier.
func (s *Scope) ID() ScopeID { return s.id }

// Outer returns the parent scope, or nil for a root scope.
func (s *Scope) Outer() *Scope { return s.outer }

// BindLangItem binds a lang item to a trait path in this scope.
func (s *Scope) BindLangItem(lang, path string) {
	s.langItems[lang] = path
}

// Alias makes path an alternative name for the canonical path target.
func (s *Scope) Alias(path, target string) {
	s.aliases[path] = target
}

func (s *Scope) langItemPath(lang string) (string, *Scope, bool) {
	if path, ok := s.langItems[lang]; ok {
		return path, s, true
	}
	if s.outer != nil {
		return s.outer.langItemPath(lang)
	}
	return "", nil, false
}

// canonicalPath follows re-export aliases visible from this scope.
func (s *Scope) canonicalPath(path string) string {
	visited := map[string]bool{}
	for !visited[path] {
		visited[path] = true
		target, ok := s.lookupAlias(path)
		if !ok {
			return path
		}
		path = target
	}
	return path
}

func (s *Scope) lookupAlias(path string) (string, bool) {
	if target, ok := s.aliases[path]; ok {
		return target, true
	}
	if s.outer != nil {
		return s.outer.lookupAlias(path)
	}
	return "", false
}

// DefineScope creates a scope. An empty parent creates a root scope.
func (t *TraitTable) DefineScope(id ScopeID, parent ScopeID) (*Scope, error) {
	if _, ok := t.scopes[id]; ok {
		return nil, fmt.Errorf("scope %q already defined", id)
	}
	s := &Scope{
		id:        id,
		langItems: make(map[string]string),
		aliases:   make(map[string]string),
	}
	if parent != "" {
		outer, ok := t.scopes[parent]
		if !ok {
			return nil, typesystem.NewSymbolNotFoundError(string(parent))
		}
		s.outer = outer
	}
	t.scopes[id] = s
	return s, nil
}

// Scope returns a previously defined scope.
func (t *TraitTable) Scope(id ScopeID) (*Scope, bool) {
	s, ok := t.scopes[id]
	return s, ok
}

// ResolvePath resolves a trait path as written in the given scope.
func (t *TraitTable) ResolvePath(scope ScopeID, path string) (typesystem.TraitID, bool) {
	if s, ok := t.scopes[scope]; ok {
		path = s.canonicalPath(path)
	}
	return t.TraitByPath(path)
}

// LangItem resolves a lang item in the given scope.
func (t *TraitTable) LangItem(scope ScopeID, lang string) (typesystem.TraitID, bool) {
	s, ok := t.scopes[scope]
	if !ok {
		return 0, false
	}
	path, from, ok := s.langItemPath(lang)
	if !ok {
		return 0, false
	}
	// Resolve relative to the scope that made the binding
	return t.TraitByPath(from.canonicalPath(path))
}

// CallableTraits returns the callable traits visible in scope, ordered by
// capture mode: Fn, FnMut, FnOnce. Lang items that are not bound in the
// scope are left out, so the result may be empty.
func (t *TraitTable) CallableTraits(scope ScopeID) []typesystem.TraitID {
	var ids []typesystem.TraitID
	for _, lang := range config.CallableLangItems {
		if id, ok := t.LangItem(scope, lang); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
