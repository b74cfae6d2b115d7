// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// hurlgo runs one or more HTTP test scripts and reports captures, asserts
// and request/response detail. Structured after the teacher's cmd/ht
// (flag.FlagSet-driven, one binary many scripts) but with a single run mode
// rather than ht's multi-subcommand dispatcher, since this spec has one
// operation (run scripts) rather than ht's run/bench/monitor/record family.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/vdobler/hurlgo/ast"
	"github.com/vdobler/hurlgo/hlog"
	"github.com/vdobler/hurlgo/parallel"
	"github.com/vdobler/hurlgo/parser"
	"github.com/vdobler/hurlgo/runner"
	"github.com/vdobler/hurlgo/template"
	"github.com/vdobler/hurlgo/value"
	"github.com/vdobler/hurlgo/varfile"
)

type stringList []string

func (s *stringList) String() string { return fmt.Sprint([]string(*s)) }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("hurlgo", flag.ContinueOnError)
	var (
		variables     stringList
		variableFiles stringList
		toEntry       = fs.Int("to-entry", 0, "stop after this many entries per file (0 = run all)")
		workers       = fs.Int("workers", 1, "number of scripts to run concurrently")
		repeat        = fs.Int("repeat", 0, "extra repetitions of the full file list (-1 = forever)")
		verbose       = fs.Bool("verbose", false, "enable verbose logging")
	)
	fs.Var(&variables, "variable", "NAME=VALUE, may be repeated")
	fs.Var(&variableFiles, "variables-file", "path to a NAME=VALUE variables file, may be repeated")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	files := fs.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "hurlgo: no script files given")
		return 2
	}

	level := hlog.LevelNormal
	if *verbose {
		level = hlog.LevelVerbose
	}
	zapLogger, _ := zap.NewProduction()
	log := hlog.New(level, zapLogger, value.NewRedactor(nil))
	defer log.Sync()

	baseVars := template.NewVariableSet()
	varfile.LoadEnv(baseVars)
	for _, path := range variableFiles {
		if err := varfile.LoadFile(path, baseVars); err != nil {
			fmt.Fprintf(os.Stderr, "hurlgo: %s\n", err)
			return 2
		}
	}
	for _, kv := range variables {
		if err := varfile.LoadInline(kv, baseVars); err != nil {
			fmt.Fprintf(os.Stderr, "hurlgo: %s\n", err)
			return 2
		}
	}

	scripts := make([]*ast.Script, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hurlgo: %s: %s\n", path, err)
			return 2
		}
		script, err := parser.Parse(path, string(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "hurlgo: %s: %s\n", path, err)
			return 2
		}
		scripts = append(scripts, script)
	}

	fr := runner.NewFileRunner()
	fr.Entry.Log = log
	fr.ToEntry = *toEntry

	queue := parallel.NewJobQueue(scripts, *repeat, func() *template.VariableSet {
		return baseVars.Clone()
	})
	pool := parallel.NewPool(*workers, fr)

	ctx := context.Background()
	ch := pool.Run(ctx, queue)

	allOK := true
	for m := range parallel.Collect(ch) {
		if m.Result == nil {
			allOK = false
			fmt.Fprintf(os.Stderr, "hurlgo: job %d failed before producing a result\n", m.Seq)
			continue
		}
		printSummary(m.Result)
		if !m.Result.Success {
			allOK = false
		}
	}
	if allOK {
		return 0
	}
	return 1
}

func printSummary(r *runner.HurlResult) {
	status := "OK"
	if !r.Success {
		status = "FAIL"
	}
	fmt.Printf("%-4s %s (%d entries, %s)\n", status, r.Filename, len(r.Entries), r.Duration)
	if r.Success {
		return
	}
	for _, entry := range r.Entries {
		if len(entry.Errors) == 0 {
			continue
		}
		fmt.Printf("     entry %d: %d error(s)", entry.EntryIndex, len(entry.Errors.Errors()))
		for kind, n := range entry.Errors.GroupByAssertKind() {
			fmt.Printf(", %s=%d", kind, n)
		}
		fmt.Println()
	}
}
