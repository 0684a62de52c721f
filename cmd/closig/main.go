package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"

	"github.com/eaburns/pretty"
	"github.com/mattn/go-isatty"

	"github.com/funvibe/closig/internal/config"
	"github.com/funvibe/closig/internal/scenario"
	"github.com/funvibe/closig/internal/symbols"
)

const usage = `usage: closig [flags] scenario.yaml|dir...

Runs closure signature deduction scenarios and reports the deduced
signatures. Exits with status 1 if any scenario does not match its wanted
outcome.

flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	log.SetFlags(0)
	log.SetOutput(stderr)

	fs := flag.NewFlagSet("closig", flag.ContinueOnError)
	fs.SetOutput(stderr)
	preludePath := fs.String("prelude", "", "trait prelude `file` (default: built-in)")
	verbose := fs.Bool("v", false, "trace every inference pass to stderr")
	dump := fs.Bool("dump", false, "dump the expected and deduced type terms")
	record := fs.String("record", "", "append results to the SQLite history `db`")
	workers := fs.Int("j", runtime.GOMAXPROCS(0), "number of scenarios run in parallel")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	db, err := loadTraits(*preludePath)
	if err != nil {
		log.Printf("closig: %v", err)
		return 1
	}

	files, err := scenario.Collect(fs.Args())
	if err != nil {
		log.Printf("closig: %v", err)
		return 1
	}
	var scenarios []*scenario.Scenario
	for _, f := range files {
		loaded, err := scenario.Load(f)
		if err != nil {
			log.Printf("closig: %v", err)
			return 1
		}
		scenarios = append(scenarios, loaded...)
	}

	runner := scenario.NewRunner(db)
	if *verbose {
		runner.Log = stderr
	}
	ctx := context.Background()
	results, err := runner.RunAll(ctx, scenarios, *workers)
	if err != nil {
		log.Printf("closig: %v", err)
		return 1
	}

	var rec *scenario.Recorder
	if *record != "" {
		if rec, err = scenario.OpenRecorder(*record); err != nil {
			log.Printf("closig: %v", err)
			return 1
		}
		defer rec.Close()
	}

	pretty.Indent = "    "
	p := newPrinter(stdout)
	failed := 0
	for _, res := range results {
		if rec != nil {
			changed, err := rec.Changed(ctx, res.Scenario.Key(), res.Signature.String())
			if err == nil && changed {
				p.note(res.Scenario.ID(), "signature changed since last recorded run")
			}
			if err == nil {
				err = rec.Record(ctx, res)
			}
			if err != nil {
				log.Printf("closig: %v", err)
				return 1
			}
		}

		if res.Passed() {
			p.pass(res.Scenario.ID(), res.Signature.String())
		} else {
			failed++
			p.fail(res.Scenario.ID(), res.Mismatch())
		}
		for _, e := range res.Errors {
			p.note(res.Scenario.ID(), e.Error())
		}
		if *dump {
			fmt.Fprintf(stdout, "expected:\n%s\ndeduced:\n%s\n", pretty.String(res.Expected), pretty.String(res.Signature))
		}
	}

	fmt.Fprintf(stdout, "%d scenarios, %d failed\n", len(results), failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func loadTraits(path string) (*symbols.TraitTable, error) {
	if path == "" {
		return symbols.GetPrelude()
	}
	p, err := config.LoadPrelude(path)
	if err != nil {
		return nil, err
	}
	return symbols.NewTraitTableFromPrelude(p)
}

// printer writes the report, colored when going to a terminal.
type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer) *printer {
	color := false
	if f, ok := w.(*os.File); ok && os.Getenv("NO_COLOR") == "" && os.Getenv("TERM") != "dumb" {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &printer{w: w, color: color}
}

func (p *printer) paint(code, s string) string {
	if !p.color {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

func (p *printer) pass(id, sig string) {
	fmt.Fprintf(p.w, "%s %s: %s\n", p.paint("32", "ok  "), id, sig)
}

func (p *printer) fail(id, msg string) {
	fmt.Fprintf(p.w, "%s %s: %s\n", p.paint("31", "FAIL"), id, msg)
}

func (p *printer) note(id, msg string) {
	fmt.Fprintf(p.w, "     %s: %s\n", id, p.paint("33", msg))
}
