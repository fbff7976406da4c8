package vm

import (
	"io"

	"github.com/lscvm/lscvm/internal/flushio"
)

// Option configures a VM at construction time, in the teacher's
// functional-options style (see options.go/api.go of the FIRST/THIRD
// interpreter this package is descended from).
type Option interface{ apply(vm *VM) }

type optionFunc func(vm *VM)

func (f optionFunc) apply(vm *VM) { f(vm) }

// WithOutput directs the VM's 'I'/'P' output to w.
func WithOutput(w io.Writer) Option {
	return optionFunc(func(vm *VM) {
		if vm.out != nil {
			_ = vm.out.Flush()
		}
		vm.out = flushio.NewWriteFlusher(w)
		if c, ok := w.(io.Closer); ok {
			vm.closer = c
		}
	})
}

// WithTee additionally mirrors output to w, alongside whatever output
// writer is already configured.
func WithTee(w io.Writer) Option {
	return optionFunc(func(vm *VM) {
		vm.out = flushio.WriteFlushers(vm.out, flushio.NewWriteFlusher(w))
	})
}

// WithLogf installs a trace/warning sink; nil disables logging (the
// zero-cost default).
func WithLogf(logf func(mess string, args ...interface{})) Option {
	return optionFunc(func(vm *VM) { vm.logf = logf })
}
