package config

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed prelude.yaml
var defaultPrelude []byte

// Prelude declares the traits known to inference and the scopes they are
// reachable from.
type Prelude struct {
	// Traits lists every trait declaration, in declaration order.
	Traits []TraitDecl `yaml:"traits"`

	// Scopes lists the compilation-unit scopes. A scope inherits the lang
	// item bindings of its parent unless it overrides them.
	Scopes []ScopeDecl `yaml:"scopes"`
}

// TraitDecl is a single trait declaration.
type TraitDecl struct {
	// Path is the canonical path of the trait (e.g. "core::ops::function::Fn").
	Path string `yaml:"path"`

	// Lang is the lang item this trait implements, if any ("fn", "fn_mut", "fn_once").
	Lang string `yaml:"lang,omitempty"`

	// AssocTypes are the names of the associated types the trait declares.
	AssocTypes []string `yaml:"assoc_types,omitempty"`

	// Supertraits are paths of traits this trait extends.
	Supertraits []string `yaml:"supertraits,omitempty"`
}

// ScopeDecl describes one compilation-unit scope.
type ScopeDecl struct {
	Name string `yaml:"name"`

	// Parent is the scope lookups fall back to. Empty for a root scope.
	Parent string `yaml:"parent,omitempty"`

	// LangItems binds lang item names to trait paths in this scope. A path
	// may differ from the trait's canonical path when the scope re-exports it.
	LangItems map[string]string `yaml:"lang_items,omitempty"`

	// Aliases maps re-exported paths to canonical trait paths.
	Aliases map[string]string `yaml:"aliases,omitempty"`
}

// DefaultPrelude returns the built-in prelude.
func DefaultPrelude() (*Prelude, error) {
	return ParsePrelude(defaultPrelude, "prelude.yaml")
}

// LoadPrelude reads and parses a prelude file.
func LoadPrelude(path string) (*Prelude, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prelude %s: %w", path, err)
	}
	return ParsePrelude(data, path)
}

// ParsePrelude parses prelude content from bytes.
// The path argument is used only for error messages.
func ParsePrelude(data []byte, path string) (*Prelude, error) {
	var p Prelude
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	p.setDefaults()
	if err := p.validate(path); err != nil {
		return nil, err
	}
	return &p, nil
}

// setDefaults fills in what a minimal prelude leaves out.
func (p *Prelude) setDefaults() {
	for i, t := range p.Traits {
		if t.Lang == FnOnceLangItem && len(t.AssocTypes) == 0 {
			p.Traits[i].AssocTypes = []string{FnOutputAssocName}
		}
	}

	if len(p.Scopes) == 0 {
		// Bind every declared lang item in a single root scope
		core := ScopeDecl{Name: CoreScopeName, LangItems: map[string]string{}}
		for _, t := range p.Traits {
			if t.Lang != "" {
				core.LangItems[t.Lang] = t.Path
			}
		}
		p.Scopes = []ScopeDecl{core}
	}
}

// validate checks the prelude for semantic errors.
func (p *Prelude) validate(path string) error {
	if len(p.Traits) == 0 {
		return fmt.Errorf("%s: no traits defined", path)
	}

	traits := make(map[string]bool)
	langs := make(map[string]string) // lang item → path
	for i, t := range p.Traits {
		if t.Path == "" {
			return fmt.Errorf("%s: traits[%d]: path is required", path, i)
		}
		if traits[t.Path] {
			return fmt.Errorf("%s: traits[%d]: duplicate trait %q", path, i, t.Path)
		}
		traits[t.Path] = true
		if t.Lang != "" {
			if !slices.Contains(CallableLangItems, t.Lang) {
				return fmt.Errorf("%s: traits[%d]: unknown lang item %q", path, i, t.Lang)
			}
			if prev, ok := langs[t.Lang]; ok {
				return fmt.Errorf("%s: traits[%d]: lang item %q already declared by %s", path, i, t.Lang, prev)
			}
			langs[t.Lang] = t.Path
		}
		seen := make(map[string]bool)
		for _, a := range t.AssocTypes {
			if a == "" || seen[a] {
				return fmt.Errorf("%s: traits[%d]: invalid or duplicate associated type %q", path, i, a)
			}
			seen[a] = true
		}
	}
	for i, t := range p.Traits {
		for _, super := range t.Supertraits {
			if !traits[super] {
				return fmt.Errorf("%s: traits[%d]: unknown supertrait %q", path, i, super)
			}
		}
	}

	scopes := make(map[string]ScopeDecl)
	for i, s := range p.Scopes {
		if s.Name == "" {
			return fmt.Errorf("%s: scopes[%d]: name is required", path, i)
		}
		if _, ok := scopes[s.Name]; ok {
			return fmt.Errorf("%s: scopes[%d]: duplicate scope %q", path, i, s.Name)
		}
		scopes[s.Name] = s
	}
	for i, s := range p.Scopes {
		if s.Parent != "" {
			if _, ok := scopes[s.Parent]; !ok {
				return fmt.Errorf("%s: scopes[%d]: unknown parent scope %q", path, i, s.Parent)
			}
		}
		for alias, target := range s.Aliases {
			if !traits[target] {
				return fmt.Errorf("%s: scopes[%d]: alias %q refers to unknown trait %q", path, i, alias, target)
			}
		}
	}

	// Parent chains must terminate
	for _, s := range p.Scopes {
		visited := map[string]bool{}
		for cur := s; cur.Parent != ""; cur = scopes[cur.Parent] {
			if visited[cur.Name] {
				return fmt.Errorf("%s: scope %q has a cyclic parent chain", path, s.Name)
			}
			visited[cur.Name] = true
		}
	}

	for i, s := range p.Scopes {
		for lang, target := range s.LangItems {
			if !slices.Contains(CallableLangItems, lang) {
				return fmt.Errorf("%s: scopes[%d]: unknown lang item %q", path, i, lang)
			}
			if !traits[target] && !aliasVisible(scopes, s, target) {
				return fmt.Errorf("%s: scopes[%d]: lang item %q refers to unknown trait %q", path, i, lang, target)
			}
		}
	}
	return nil
}

// aliasVisible reports whether alias is declared in s or one of its parents.
// Parent chains are known to terminate.
func aliasVisible(scopes map[string]ScopeDecl, s ScopeDecl, alias string) bool {
	for cur, ok := s, true; ok; cur, ok = scopes[cur.Parent] {
		if _, declared := cur.Aliases[alias]; declared {
			return true
		}
	}
	return false
}
