// Package demo holds a small registry of hand-built IR modules standing in
// for what a source-level frontend would otherwise parse -- since
// internal/ir has no parser (spec.md §1 keeps the source language,
// AST, and type checker out of scope), cmd/lscvm's "-program" flag and
// cmd/lscvmconform both need a named, ready-to-compile module, not a file
// path. Each entry also carries the exact stdout a correct compile+execute
// should produce, used as the conformance runner's golden value.
package demo

import "github.com/lscvm/lscvm/internal/ir"

// Program names a built-in module and its expected output.
type Program struct {
	Name   string
	Build  func() *ir.Module
	Golden string
}

var registry = []Program{
	{Name: "empty", Build: buildEmpty, Golden: ""},
	{Name: "mul42", Build: buildMul42, Golden: "42"},
	{Name: "conditional", Build: buildConditional, Golden: "1"},
}

// Names returns the built-in program names, in registration order.
func Names() []string {
	names := make([]string, len(registry))
	for i, p := range registry {
		names[i] = p.Name
	}
	return names
}

// Get looks up a built-in program by name.
func Get(name string) (Program, bool) {
	for _, p := range registry {
		if p.Name == name {
			return p, true
		}
	}
	return Program{}, false
}

// All returns every built-in program, in registration order.
func All() []Program {
	out := make([]Program, len(registry))
	copy(out, registry)
	return out
}

// globalInit declares the trivial do-nothing global initializer every
// module needs: the translator's module prologue unconditionally calls it
// before main, mirroring __global_init_function__ in the original
// translator.
func globalInit(b *ir.Builder) *ir.FuncBuilder {
	fn := b.Func("__lscvm_global_init__", nil, ir.Void)
	fn.Block("entry").Return()
	b.SetGlobalInit(fn)
	return fn
}

// buildEmpty is the minimal module: global init, then a main that returns
// immediately. Its compiled program is just the module prologue and two
// empty function bodies -- nothing is printed.
func buildEmpty() *ir.Module {
	b := ir.NewBuilder()
	globalInit(b)
	main := b.Func("main", nil, ir.Void)
	main.Block("entry").Return()
	b.SetEntry(main)
	return b.Module()
}

// buildMul42 computes 7*6 and prints it as a decimal integer, exercising
// constant materialization and arithmetic lowering end to end.
func buildMul42() *ir.Module {
	b := ir.NewBuilder()
	globalInit(b)
	main := b.Func("main", nil, ir.Void)
	entry := main.Block("entry")
	product := entry.Mul(ir.ConstInt(7), ir.ConstInt(6))
	entry.CallPrintInt(product)
	entry.Return()
	b.SetEntry(main)
	return b.Module()
}

// buildConditional evaluates 5 > 3 and branches on it, printing 1 from the
// true arm and 0 from the false arm, exercising comparison lowering and
// both conditional and unconditional branch lowering.
func buildConditional() *ir.Module {
	b := ir.NewBuilder()
	globalInit(b)
	main := b.Func("main", nil, ir.Void)
	entry := main.Block("entry")
	thenBlk := main.Block("then")
	elseBlk := main.Block("else")
	merge := main.Block("merge")

	cond := entry.ICmpGT(ir.ConstInt(5), ir.ConstInt(3))
	entry.BranchCond(cond, thenBlk, elseBlk)

	thenBlk.CallPrintInt(ir.ConstInt(1))
	thenBlk.Branch(merge)

	elseBlk.CallPrintInt(ir.ConstInt(0))
	elseBlk.Branch(merge)

	merge.Return()
	b.SetEntry(main)
	return b.Module()
}
