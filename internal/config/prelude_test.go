package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultPrelude(t *testing.T) {
	p, err := DefaultPrelude()
	if err != nil {
		t.Fatalf("DefaultPrelude: %v", err)
	}

	langs := map[string]string{}
	for _, tr := range p.Traits {
		if tr.Lang != "" {
			langs[tr.Lang] = tr.Path
		}
	}
	for _, lang := range CallableLangItems {
		if langs[lang] == "" {
			t.Errorf("lang item %q not declared", lang)
		}
	}

	names := map[string]bool{}
	for _, s := range p.Scopes {
		names[s.Name] = true
	}
	for _, want := range []string{CoreScopeName, StdScopeName} {
		if !names[want] {
			t.Errorf("scope %q missing", want)
		}
	}
}

func TestParsePreludeDefaults(t *testing.T) {
	p, err := ParsePrelude([]byte(`
traits:
  - path: a::Fn
    lang: fn
  - path: a::FnOnce
    lang: fn_once
`), "min.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Traits[1].AssocTypes; len(got) != 1 || got[0] != FnOutputAssocName {
		t.Errorf("FnOnce assoc types = %v", got)
	}
	if len(p.Scopes) != 1 || p.Scopes[0].Name != CoreScopeName {
		t.Fatalf("scopes = %+v", p.Scopes)
	}
	if got := p.Scopes[0].LangItems; got[FnLangItem] != "a::Fn" || got[FnOnceLangItem] != "a::FnOnce" {
		t.Errorf("lang items = %v", got)
	}
}

func TestParsePreludeErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"empty", ``, "no traits defined"},
		{"syntax", "traits: [", "parsing bad.yaml"},
		{"missing path", "traits:\n  - lang: fn\n", "path is required"},
		{"duplicate trait", "traits:\n  - path: a\n  - path: a\n", `duplicate trait "a"`},
		{"unknown lang item", "traits:\n  - path: a\n    lang: call\n", `unknown lang item "call"`},
		{"lang item twice", "traits:\n  - path: a\n    lang: fn\n  - path: b\n    lang: fn\n", "already declared by a"},
		{"duplicate assoc", "traits:\n  - path: a\n    assoc_types: [X, X]\n", `duplicate associated type "X"`},
		{"unknown supertrait", "traits:\n  - path: a\n    supertraits: [b]\n", `unknown supertrait "b"`},
		{
			"unknown parent",
			"traits:\n  - path: a\nscopes:\n  - name: s\n    parent: p\n",
			`unknown parent scope "p"`,
		},
		{
			"alias to nothing",
			"traits:\n  - path: a\nscopes:\n  - name: s\n    aliases:\n      x: b\n",
			`alias "x" refers to unknown trait "b"`,
		},
		{
			"lang item to nothing",
			"traits:\n  - path: a\nscopes:\n  - name: s\n    lang_items:\n      fn: b\n",
			`lang item "fn" refers to unknown trait "b"`,
		},
		{
			"cyclic scopes",
			"traits:\n  - path: a\nscopes:\n  - name: s\n    parent: t\n  - name: t\n    parent: s\n",
			"cyclic parent chain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePrelude([]byte(tt.input), "bad.yaml")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestParsePreludeInheritedAlias(t *testing.T) {
	p, err := ParsePrelude([]byte(`
traits:
  - path: core::ops::function::FnOnce
scopes:
  - name: std
    parent: core
    lang_items:
      fn_once: core::FnOnceAlias
  - name: core
    aliases:
      core::FnOnceAlias: core::ops::function::FnOnce
`), "p.yaml")
	if err != nil {
		t.Fatalf("ParsePrelude: %v", err)
	}
	if got := p.Scopes[0].LangItems[FnOnceLangItem]; got != "core::FnOnceAlias" {
		t.Errorf("std fn_once = %q, want core::FnOnceAlias", got)
	}

	// An alias declared only in a child is not visible to its parent
	_, err = ParsePrelude([]byte(`
traits:
  - path: core::ops::function::FnOnce
scopes:
  - name: std
    parent: core
    aliases:
      std::FnOnceAlias: core::ops::function::FnOnce
  - name: core
    lang_items:
      fn_once: std::FnOnceAlias
`), "p.yaml")
	if err == nil || !strings.Contains(err.Error(), `refers to unknown trait "std::FnOnceAlias"`) {
		t.Errorf("expected unknown trait error, got %v", err)
	}
}

func TestLoadPrelude(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prelude.yaml")
	if err := os.WriteFile(path, []byte("traits:\n  - path: a::Once\n    lang: fn_once\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadPrelude(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Traits) != 1 {
		t.Errorf("traits = %+v", p.Traits)
	}

	if _, err := LoadPrelude(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}
