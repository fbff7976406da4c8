package ir

// Builder assembles a Module incrementally. It exists so that
// internal/demo's fixtures and internal/translator's tests can write IR by
// hand without juggling ids themselves -- there is no frontend in this
// repository to do that job for them.
type Builder struct {
	mod        Module
	nextValue  ValueID
	nextBlock  BlockID
	nextFunc   FuncID
	nextString StringID
}

// NewBuilder returns an empty module builder.
func NewBuilder() *Builder { return &Builder{} }

// GlobalString interns a string literal and returns an operand referring to
// its eventual memory address.
func (b *Builder) GlobalString(s string) Value {
	b.nextString++
	id := b.nextString
	b.mod.GlobalStrings = append(b.mod.GlobalStrings, GlobalString{ID: id, Value: s})
	return GlobalStringRef(id)
}

// Func declares a new function and returns a builder scoped to it.
func (b *Builder) Func(name string, params []Type, ret Type) *FuncBuilder {
	b.nextFunc++
	fn := &Function{ID: b.nextFunc, Name: name, Params: params, ReturnType: ret}
	b.mod.Functions = append(b.mod.Functions, fn)
	return &FuncBuilder{b: b, fn: fn}
}

// SetEntry marks fn as the module's entry point ("main").
func (b *Builder) SetEntry(fn *FuncBuilder) { b.mod.EntryFunction = fn.fn.ID }

// SetGlobalInit marks fn as the module's global-initializer function.
func (b *Builder) SetGlobalInit(fn *FuncBuilder) { b.mod.GlobalInitFunction = fn.fn.ID }

// Module returns the assembled module.
func (b *Builder) Module() *Module { return &b.mod }

// FuncBuilder assembles one function's parameters, stack allocations, and
// basic blocks.
type FuncBuilder struct {
	b  *Builder
	fn *Function
}

// ID returns the function's stable id, e.g. to build a FuncRef call operand.
func (f *FuncBuilder) ID() FuncID { return f.fn.ID }

// Param returns an operand referencing the i'th parameter -- parameters
// live on the data stack at function entry, most-recently-pushed (i.e. the
// first argument) on top, exactly as spec.md §4.3 describes.
func (f *FuncBuilder) Param(i int) Value {
	return ParamRef(i, f.fn.Params[i])
}

// Block appends a new basic block and returns a builder scoped to it.
func (f *FuncBuilder) Block(name string) *BlockBuilder {
	f.b.nextBlock++
	blk := &Block{ID: f.b.nextBlock, Name: name}
	f.fn.Blocks = append(f.fn.Blocks, blk)
	return &BlockBuilder{f: f, blk: blk}
}

// BlockBuilder assembles one basic block's instructions.
type BlockBuilder struct {
	f   *FuncBuilder
	blk *Block
}

// ID returns the block's stable id, e.g. to build a branch target.
func (bb *BlockBuilder) ID() BlockID { return bb.blk.ID }

func (bb *BlockBuilder) emit(inst Instruction) Value {
	if inst.Result == 0 && inst.ResultType.Words > 0 {
		bb.f.b.nextValue++
		inst.Result = bb.f.b.nextValue
	}
	bb.blk.Instructions = append(bb.blk.Instructions, inst)
	if inst.Result != 0 {
		return RefOf(inst.Result, inst.ResultType)
	}
	return Value{}
}

func (bb *BlockBuilder) binop(kind InstKind, a, b Value) Value {
	return bb.emit(Instruction{Kind: kind, LHS: a, RHS: b, ResultType: Word})
}

func (bb *BlockBuilder) Add(a, b Value) Value { return bb.binop(InstAdd, a, b) }
func (bb *BlockBuilder) Sub(a, b Value) Value { return bb.binop(InstSub, a, b) }
func (bb *BlockBuilder) Mul(a, b Value) Value { return bb.binop(InstMul, a, b) }
func (bb *BlockBuilder) Div(a, b Value) Value { return bb.binop(InstDiv, a, b) }

func (bb *BlockBuilder) ICmpEQ(a, b Value) Value     { return bb.binop(InstICmpEQ, a, b) }
func (bb *BlockBuilder) ICmpNE(a, b Value) Value     { return bb.binop(InstICmpNE, a, b) }
func (bb *BlockBuilder) ICmpGT(a, b Value) Value     { return bb.binop(InstICmpGT, a, b) }
func (bb *BlockBuilder) ICmpLT(a, b Value) Value     { return bb.binop(InstICmpLT, a, b) }
func (bb *BlockBuilder) ICmpGE(a, b Value) Value     { return bb.binop(InstICmpGE, a, b) }
func (bb *BlockBuilder) ICmpLE(a, b Value) Value     { return bb.binop(InstICmpLE, a, b) }
func (bb *BlockBuilder) ICmpMulti(a, b Value) Value  { return bb.binop(InstICmpMulti, a, b) }

// BranchCond emits a two-way conditional branch.
func (bb *BlockBuilder) BranchCond(cond Value, ifTrue, ifFalse *BlockBuilder) {
	bb.emit(Instruction{Kind: InstBranchCond, Cond: cond, TrueBlock: ifTrue.blk.ID, FalseBlock: ifFalse.blk.ID})
}

// Branch emits an unconditional branch.
func (bb *BlockBuilder) Branch(target *BlockBuilder) {
	bb.emit(Instruction{Kind: InstBranchUncond, Target: target.blk.ID})
}

// Alloca reserves frame words for a stack-spilled (lvalue) slot and returns
// an operand referring to its address.
func (bb *BlockBuilder) Alloca(t Type) Value {
	bb.f.fn.StackAllocs = append(bb.f.fn.StackAllocs, t)
	return bb.emit(Instruction{Kind: InstAlloca, AllocType: t, ResultType: t})
}

// Store writes val through ptr (an Alloca result).
func (bb *BlockBuilder) Store(val, ptr Value) {
	bb.emit(Instruction{Kind: InstStore, StoreVal: val, StorePtr: ptr})
}

// Call emits a direct call to callee with the given arguments (left-to-right
// in source order; the translator pushes them right-to-left per the calling
// convention).
func (bb *BlockBuilder) Call(callee *FuncBuilder, args ...Value) Value {
	rt := callee.fn.ReturnType
	return bb.emit(Instruction{Kind: InstCall, Callee: callee.fn.ID, Args: args, ResultType: rt})
}

// CallPrintChar emits an inlined call to the lscvm.P intrinsic.
func (bb *BlockBuilder) CallPrintChar(arg Value) {
	bb.emit(Instruction{Kind: InstCall, Intrinsic: IntrinsicPrintChar, Args: []Value{arg}})
}

// CallPrintInt emits an inlined call to the lscvm.I intrinsic.
func (bb *BlockBuilder) CallPrintInt(arg Value) {
	bb.emit(Instruction{Kind: InstCall, Intrinsic: IntrinsicPrintInt, Args: []Value{arg}})
}

// Return emits a value-less return.
func (bb *BlockBuilder) Return() {
	bb.emit(Instruction{Kind: InstReturn})
}

// ReturnValue emits a return carrying val.
func (bb *BlockBuilder) ReturnValue(val Value) {
	bb.emit(Instruction{Kind: InstReturn, HasRetVal: true, RetVal: val})
}
