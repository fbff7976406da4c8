// Package vm implements the LSVM emulator: an interpreter for a
// character-coded instruction set over a data stack, a call stack, and a
// small fixed-size word memory. It is the reference semantics for whatever
// internal/translator emits, and is otherwise a pure, single-threaded
// dispatch loop with no knowledge of where its program came from.
package vm

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/lscvm/lscvm/internal/flushio"
	"github.com/lscvm/lscvm/internal/panicerr"
	"github.com/lscvm/lscvm/internal/runeio"
)

// Fixed machine constants (spec.md §6); the translator relies on these
// exact values when laying out its stack pointer word and constant pool.
const (
	MemorySize        = 0x13880
	WordSize          = 4
	StackPointerAddr  = 0x10000
	StackFrameAddr    = 0x10001
	ConstantPoolBase  = 0x12000
	MaxProgramSize    = 0x2000
	MaxRelocationSize = 32
)

// VM holds one program execution's state. A VM is constructed fresh for
// every run and discarded on halt -- it owns no resources beyond its output
// writer.
type VM struct {
	// pc is unsigned and wraps modulo 2^32, matching the word size of the
	// stack values that feed it (G/Z/C all compute pc from a popped word).
	// A backward relative jump is encoded as a word near 2^32 (two's
	// complement of a negative offset); adding it to pc and relying on
	// uint32 wraparound recovers the correct backward target. See spec.md
	// §9 on the 'C'-to-zero call relying on the same wraparound.
	pc      uint32
	progLen int
	data    []uint32
	call    []uint32
	mem     [MemorySize]uint32

	out flushio.WriteFlusher

	logf   func(mess string, args ...interface{})
	step   uint64
	closer io.Closer
}

// New constructs a VM, applying the given options. With no options, output
// is discarded and there is no trace logging.
func New(opts ...Option) *VM {
	vm := &VM{
		out: flushio.NewWriteFlusher(ioutil.Discard),
	}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(vm)
		}
	}
	return vm
}

// PC returns the current instruction index, mostly useful from tests and
// from the dump tooling.
func (vm *VM) PC() uint32 { return vm.pc }

// Stack returns a copy of the current data stack, top-of-stack last.
func (vm *VM) Stack() []uint32 {
	out := make([]uint32, len(vm.data))
	copy(out, vm.data)
	return out
}

// CallStack returns a copy of the current call stack.
func (vm *VM) CallStack() []uint32 {
	out := make([]uint32, len(vm.call))
	copy(out, vm.call)
	return out
}

// Load reads one word of memory, without bounds enforcement -- used by the
// dumper and by tests that want to peek at the translator's layout.
func (vm *VM) Load(addr uint32) uint32 {
	if int(addr) >= len(vm.mem) {
		return 0
	}
	return vm.mem[addr]
}

// Steps returns the number of instructions dispatched so far.
func (vm *VM) Steps() uint64 { return vm.step }

// Run sanitizes program and executes it to completion (or until ctx is
// done), recovering any internal panic into a returned error exactly as the
// original emulator's halt() prints a message and exits -- except here we
// return the error instead of calling os.Exit, since a library has no
// business terminating its host process.
func (vm *VM) Run(ctx context.Context, program string) error {
	return panicerr.Recover("vm", func() error {
		return vm.run(ctx, program)
	})
}

func (vm *VM) run(ctx context.Context, program string) (err error) {
	defer func() {
		if ferr := vm.out.Flush(); err == nil {
			err = ferr
		}
	}()

	instrs, warnings := clean(program)
	for _, w := range warnings {
		vm.warnf("%s", w)
	}

	defer func() {
		if r := recover(); r != nil {
			he, ok := r.(haltError)
			if !ok {
				panic(r)
			}
			err = he
		}
	}()

	vm.pc = 0
	vm.progLen = len(instrs)
	for int(vm.pc) < vm.progLen {
		if err := ctx.Err(); err != nil {
			return err
		}
		vm.dispatch(instrs[vm.pc])
		vm.pc++
		vm.step++
	}
	return nil
}

func (vm *VM) warnf(mess string, args ...interface{}) {
	if vm.logf != nil {
		vm.logf("warn: "+mess, args...)
	}
}

func (vm *VM) tracef(mess string, args ...interface{}) {
	if vm.logf != nil {
		vm.logf(mess, args...)
	}
}

func (vm *VM) halt(mess string, args ...interface{}) {
	panic(haltError(fmt.Sprintf(mess, args...)))
}

// haltError mirrors the original emulator's halt(): any one of these
// indicates a bug upstream of the VM, never a recoverable runtime
// condition -- a correct translator never emits a program that triggers one.
type haltError string

func (err haltError) Error() string { return "vm error: " + string(err) + "; vm halted" }

func (vm *VM) pop() uint32 {
	n := len(vm.data)
	if n == 0 {
		vm.halt("stack underflow")
	}
	v := vm.data[n-1]
	vm.data = vm.data[:n-1]
	return v
}

func (vm *VM) push(v uint32) {
	vm.data = append(vm.data, v)
}

func (vm *VM) popCall() uint32 {
	n := len(vm.call)
	if n == 0 {
		vm.halt("call stack underflow")
	}
	v := vm.call[n-1]
	vm.call = vm.call[:n-1]
	return v
}

func (vm *VM) pushCall(v uint32) {
	vm.call = append(vm.call, v)
}

func (vm *VM) loadMem(addr uint32) uint32 {
	if int(addr) >= len(vm.mem) {
		vm.halt("read from address '%#x' out of bounds", addr)
	}
	return vm.mem[addr]
}

func (vm *VM) storMem(addr, val uint32) {
	if int(addr) >= len(vm.mem) {
		vm.halt("write to address '%#x' out of bounds", addr)
	}
	vm.mem[addr] = val
}

func (vm *VM) printRune(r rune) {
	if _, err := runeio.WriteANSIRune(vm.out, r); err != nil {
		vm.halt("write error: %v", err)
	}
}

func (vm *VM) printInt(v int32) {
	if _, err := io.WriteString(vm.out, fmt.Sprintf("%d", v)); err != nil {
		vm.halt("write error: %v", err)
	}
}
