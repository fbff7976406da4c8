// Command lscvmconform runs every built-in demo program through
// compile+execute and reports the first one whose output doesn't match its
// recorded golden value. It is a supplemental domain-stack tool, not part
// of the core three subsystems -- see SPEC_FULL.md §6.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/net/context"

	"github.com/lscvm/lscvm/internal/conformance"
)

func main() {
	var timeout time.Duration
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "deadline for the whole batch run")
	flag.Parse()

	ctx := context.Background()
	if timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	results, err := conformance.RunAll(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "conformance run aborted: %v\n", err)
		os.Exit(2)
	}

	mismatch, found := conformance.FirstMismatch(results)
	if !found {
		fmt.Printf("ok: %d programs matched their golden output\n", len(results))
		return
	}

	if mismatch.Err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", mismatch.Name, mismatch.Err)
	} else {
		fmt.Fprintf(os.Stderr, "%s: got %q, want %q\n", mismatch.Name, mismatch.Got, mismatch.Golden)
	}
	os.Exit(1)
}
