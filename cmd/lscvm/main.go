// Command lscvm compiles one of the built-in demo IR modules (see
// internal/demo) through internal/translator and, depending on the flags
// given, writes the resulting program text, runs it immediately, or both.
// There is no source-language frontend in this repository (spec.md §1
// keeps the parser/AST/type checker out of scope), so "-program" selects a
// named, hand-built module rather than a file of source text.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/lscvm/lscvm/internal/demo"
	"github.com/lscvm/lscvm/internal/logio"
	"github.com/lscvm/lscvm/internal/translator"
	"github.com/lscvm/lscvm/internal/vm"
)

func main() {
	var (
		program string
		emit    string
		runJIT  bool
		trace   bool
		dump    bool
		timeout time.Duration
	)
	flag.StringVar(&program, "program", "mul42", "built-in demo module to compile ("+joinNames()+")")
	flag.StringVar(&emit, "emit", "", "write the compiled program text to this path")
	flag.BoolVar(&runJIT, "run-jit", false, "compile and execute immediately")
	flag.BoolVar(&trace, "trace", false, "enable VM step trace logging")
	flag.BoolVar(&dump, "dump", false, "print a post-execution dump")
	flag.DurationVar(&timeout, "timeout", 0, "specify a time limit")
	flag.Parse()

	log := logio.Logger{}
	log.SetOutput(os.Stderr)
	defer os.Exit(log.ExitCode())

	p, ok := demo.Get(program)
	if !ok {
		log.Errorf("unknown -program %q (have: %s)", program, joinNames())
		return
	}

	var translatorOpts []translator.Option
	if trace {
		translatorOpts = append(translatorOpts, translator.WithLogf(log.Leveledf("COMPILE")))
	}

	prog, err := translator.Translate(p.Build(), translatorOpts...)
	if err != nil {
		log.Errorf("compile %s: %v", program, err)
		return
	}

	if emit != "" {
		if err := os.WriteFile(emit, prog, 0o644); err != nil {
			log.Errorf("emit %s: %v", emit, err)
			return
		}
	}

	if !runJIT {
		return
	}

	// Reproduced from original_source's writeOutput(): print the compiled
	// size and raw text, append the debug-tap no-op suffix, then execute.
	fmt.Printf("compiled program (%#x bytes):\n%s\n", len(prog), prog)
	progText := string(prog) + "?!"

	vmOpts := []vm.Option{vm.WithOutput(os.Stdout)}
	if trace {
		vmOpts = append(vmOpts, vm.WithLogf(log.Leveledf("TRACE")))
	}
	machine := vm.New(vmOpts...)

	if dump {
		lw := &logio.Writer{Logf: log.Leveledf("DUMP")}
		defer lw.Close()
		defer vmDumper{vm: machine, out: lw}.dump()
	}

	ctx := context.Background()
	if timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	log.ErrorIf(machine.Run(ctx, progText))
}

func joinNames() string {
	names := demo.Names()
	s := ""
	for i, n := range names {
		if i > 0 {
			s += ", "
		}
		s += n
	}
	return s
}
