// Package scenario describes closure signature deductions in YAML files and
// runs them against a trait table.
//
// A file holds one or more documents, each a Scenario:
//
//	name: boxed callback
//	scope: core
//	closure: {params: 2}
//	expect:
//	  dyn:
//	    - eq: {trait: core::ops::function::FnOnce, args: [[i32, bool]], ty: bool}
//	want: fn(i32, bool) -> bool
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/closig/internal/config"
)

// Scenario is a single closure expression checked against an expected type.
type Scenario struct {
	Name string `yaml:"name"`

	// Scope is the scope callable traits are looked up in. Defaults to core.
	Scope string `yaml:"scope,omitempty"`

	Closure ClosureSpec `yaml:"closure"`

	// Expect is the type expected at the closure's use site. Absent means
	// no expectation.
	Expect *TypeSpec `yaml:"expect,omitempty"`

	// Where lists clauses on generic parameters in scope, keyed by parameter.
	Where map[string][]ClauseSpec `yaml:"where,omitempty"`

	// Want is the closure signature after deduction, as printed.
	Want string `yaml:"want,omitempty"`

	// WantErrors is the number of mismatches the pass must report.
	WantErrors int `yaml:"want_errors,omitempty"`

	// File and Index locate the scenario for reporting.
	File  string `yaml:"-"`
	Index int    `yaml:"-"`
}

// ClosureSpec describes the closure expression being inferred.
type ClosureSpec struct {
	// Params is the number of closure parameters.
	Params int `yaml:"params"`
}

// ID names the scenario for reports.
func (s *Scenario) ID() string {
	if s.File == "" {
		return s.name()
	}
	return filepath.Base(s.File) + ": " + s.name()
}

// Key identifies the scenario in the run history. Unlike ID it keeps the
// directory, so same-named files in different directories stay apart.
func (s *Scenario) Key() string {
	if s.File == "" {
		return s.name()
	}
	return filepath.Clean(s.File) + ": " + s.name()
}

func (s *Scenario) name() string {
	if s.Name == "" {
		return fmt.Sprintf("#%d", s.Index)
	}
	return s.Name
}

// Load reads every scenario in a file.
func Load(path string) ([]*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes a stream of scenario documents.
// The path argument is used for error messages and reports.
func Parse(data []byte, path string) ([]*Scenario, error) {
	var out []*Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	for i := 0; ; i++ {
		var s Scenario
		err := dec.Decode(&s)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: document %d: %w", path, i, err)
		}
		s.File, s.Index = path, i
		if s.Scope == "" {
			s.Scope = config.CoreScopeName
		}
		if s.Closure.Params < 0 {
			return nil, fmt.Errorf("%s: negative closure parameter count", s.ID())
		}
		out = append(out, &s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no scenarios", path)
	}
	return out, nil
}

// IsScenarioFile reports whether path has a scenario file extension.
func IsScenarioFile(path string) bool {
	return slices.Contains(config.ScenarioFileExtensions, filepath.Ext(path))
}

// Collect expands directories in paths into the scenario files they contain.
func Collect(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && IsScenarioFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
