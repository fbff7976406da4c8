// Package conformance compiles and executes every built-in demo program
// concurrently and checks its output against a recorded golden value. It is
// the home for golang.org/x/sync/errgroup and golang.org/x/net/context,
// mirroring the teacher's scripts/gen_vm_expects.go use of the same pair to
// bound a batch run with a deadline.
package conformance

import (
	"bytes"
	"fmt"
	"sort"

	"golang.org/x/net/context"
	"golang.org/x/sync/errgroup"

	"github.com/lscvm/lscvm/internal/demo"
	"github.com/lscvm/lscvm/internal/translator"
	"github.com/lscvm/lscvm/internal/vm"
)

// Result is one program's compile+execute+compare outcome.
type Result struct {
	Name   string
	Got    string
	Golden string
	Err    error
}

// OK reports whether the program compiled, ran, and matched its golden
// output.
func (r Result) OK() bool { return r.Err == nil && r.Got == r.Golden }

// RunAll compiles and executes every built-in demo program, one VM instance
// per goroutine, bounded by ctx. It never shares a VM or translator state
// across goroutines -- per spec.md's non-goals, concurrency lives strictly
// outside the VM and translator, which both remain single-threaded.
//
// Results are returned in demo registration order regardless of completion
// order. The first program whose context is cancelled or that fails to
// spawn aborts the whole run, per errgroup.Group's usual "first error
// cancels the rest" semantics -- but a program that runs to completion and
// merely produces the wrong output is recorded as a non-OK Result, not an
// error, so a single mismatch doesn't hide the others.
func RunAll(ctx context.Context) ([]Result, error) {
	programs := demo.All()
	results := make([]Result, len(programs))

	eg, ctx := errgroup.WithContext(ctx)
	for i, p := range programs {
		i, p := i, p
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = run(ctx, p)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func run(ctx context.Context, p demo.Program) Result {
	mod := p.Build()
	prog, err := translator.Translate(mod)
	if err != nil {
		return Result{Name: p.Name, Golden: p.Golden, Err: fmt.Errorf("compile %s: %w", p.Name, err)}
	}

	var out bytes.Buffer
	machine := vm.New(vm.WithOutput(&out))
	if err := machine.Run(ctx, string(prog)); err != nil {
		return Result{Name: p.Name, Golden: p.Golden, Err: fmt.Errorf("run %s: %w", p.Name, err)}
	}

	return Result{Name: p.Name, Got: out.String(), Golden: p.Golden}
}

// FirstMismatch returns the first non-OK result in name order, for a
// reporting tool that wants a single diagnostic rather than the whole
// batch.
func FirstMismatch(results []Result) (Result, bool) {
	sorted := make([]Result, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, r := range sorted {
		if !r.OK() {
			return r, true
		}
	}
	return Result{}, false
}
