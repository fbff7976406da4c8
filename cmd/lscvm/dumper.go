package main

import (
	"fmt"
	"io"

	"github.com/lscvm/lscvm/internal/vm"
)

// vmDumper prints a post-execution snapshot of a VM -- the program counter,
// both stacks, and the handful of low-memory words the translator's
// conventions give meaning to. Adapted from the teacher's dumper.go, which
// walks a dictionary of defined words; this VM has no dictionary, so the
// memory section instead walks the translator's own fixed layout (the
// stack-pointer word, the stack-frame word, and the constant pool).
type vmDumper struct {
	vm  *vm.VM
	out io.Writer
}

func (d vmDumper) dump() {
	fmt.Fprintf(d.out, "# VM Dump\n")
	fmt.Fprintf(d.out, "  pc: %d\n", d.vm.PC())
	fmt.Fprintf(d.out, "  steps: %d\n", d.vm.Steps())
	fmt.Fprintf(d.out, "  data stack: %v\n", d.vm.Stack())
	fmt.Fprintf(d.out, "  call stack: %v\n", d.vm.CallStack())

	fmt.Fprintf(d.out, "  @%#x stack pointer: %d\n", vm.StackPointerAddr, d.vm.Load(vm.StackPointerAddr))
	fmt.Fprintf(d.out, "  @%#x stack frame:   %d\n", vm.StackFrameAddr, d.vm.Load(vm.StackFrameAddr))

	d.dumpConstantPool()
}

// dumpConstantPool prints every non-zero word from the constant pool base
// to the end of memory. The VM does not record the translator's pool
// watermark, so unused pool words are skipped only by being zero.
func (d vmDumper) dumpConstantPool() {
	fmt.Fprintf(d.out, "  constant pool @%#x:\n", vm.ConstantPoolBase)
	for addr := uint32(vm.ConstantPoolBase); addr < vm.MemorySize; addr++ {
		if v := d.vm.Load(addr); v != 0 {
			fmt.Fprintf(d.out, "    @%#x: %d\n", addr, v)
		}
	}
}
