// Package ir defines the minimal SSA-ish module shape that
// internal/translator consumes. It stands in for the "fully-typed,
// fully-elaborated SSA module" spec.md treats as an external collaborator:
// the source parser, type checker, and name resolver that would normally
// build one are out of scope here, so modules are instead built directly by
// Go code (internal/demo's fixtures, or a test) through the Builder in
// build.go.
//
// Per spec.md §9's redesign note, instructions are a closed tagged union (a
// Kind enum plus the fields relevant to that Kind) rather than a hierarchy
// of virtual instruction types, and every cross-reference (value ids, block
// ids, function ids) is a plain integer id rather than an owning pointer --
// the arena (the Module itself) is the only owner.
package ir

// ValueID names an instruction's result, stable for the lifetime of the
// module that defines it.
type ValueID uint64

// BlockID names a basic block, stable for the lifetime of its function.
type BlockID uint64

// FuncID names a function, stable for the lifetime of its module.
type FuncID uint64

// StringID names a global string constant.
type StringID uint64

// Type describes the size, in words, of an SSA value. Zero words means
// void (only valid as a function return type or as the operand of a
// value-less return).
type Type struct {
	Words int
}

// Void is the empty, zero-word type.
var Void = Type{Words: 0}

// Word is the ordinary single-word integer type that almost every value in
// this IR has -- the VM has no notion of signedness or width narrower than
// a word. A constant's ConstSigned flag is recorded but never changes how
// the value is materialized, stored or operated on.
var Word = Type{Words: 1}

// ValueKind tags the variant a Value currently holds.
type ValueKind int

const (
	ValConst ValueKind = iota
	ValRef
	ValGlobalString
	ValFunc
	ValParam
)

// Value is an operand: either a constant, a reference to a prior
// instruction's result, a reference to a global string, a reference to a
// function (only meaningful as the callee operand of a Call instruction),
// or a reference to the current function's Nth parameter.
type Value struct {
	Kind ValueKind

	// ValConst
	ConstValue  int64
	ConstSigned bool
	ConstType   Type

	// ValRef
	Ref     ValueID
	RefType Type

	// ValGlobalString
	Str StringID

	// ValFunc
	Func FuncID

	// ValParam
	ParamIndex int
	ParamType  Type
}

// ConstInt builds a signed word-sized integer constant operand.
func ConstInt(n int64) Value {
	return Value{Kind: ValConst, ConstValue: n, ConstSigned: true, ConstType: Word}
}

// ConstUint builds an unsigned word-sized integer constant operand.
func ConstUint(n uint64) Value {
	return Value{Kind: ValConst, ConstValue: int64(n), ConstSigned: false, ConstType: Word}
}

// RefOf builds an operand referring to a prior instruction's result.
func RefOf(id ValueID, t Type) Value {
	return Value{Kind: ValRef, Ref: id, RefType: t}
}

// GlobalStringRef builds an operand referring to a global string's address.
func GlobalStringRef(id StringID) Value {
	return Value{Kind: ValGlobalString, Str: id}
}

// FuncRef builds an operand naming a callable function.
func FuncRef(id FuncID) Value {
	return Value{Kind: ValFunc, Func: id}
}

// ParamRef builds an operand referring to the current function's i'th
// parameter.
func ParamRef(i int, t Type) Value {
	return Value{Kind: ValParam, ParamIndex: i, ParamType: t}
}

// InstKind tags which lowering rule applies to an Instruction.
type InstKind int

const (
	InstAdd InstKind = iota
	InstSub
	InstMul
	InstDiv
	InstICmpEQ
	InstICmpNE
	InstICmpGT
	InstICmpLT
	InstICmpGE
	InstICmpLE
	InstICmpMulti
	InstBranchCond
	InstBranchUncond
	InstAlloca
	InstStore
	InstCall
	InstReturn
)

// IntrinsicPrintChar is the character-printing intrinsic, inlined to the
// VM's 'P' opcode, matching INTRINSIC_PRINT_CHAR in the original
// translator.
const IntrinsicPrintChar = "lscvm.P"

// IntrinsicPrintInt inlines to the VM's 'I' opcode (print signed decimal),
// the counterpart demo programs and tests use to observe a computed result
// without needing an external collaborator to format it.
const IntrinsicPrintInt = "lscvm.I"

// Instruction is one SSA operation. Only the fields relevant to Kind are
// populated; internal/translator's lowering switch is exhaustive over Kind.
type Instruction struct {
	Kind InstKind

	// Result, if this instruction produces a value (zero ValueID means no
	// result -- Store, Branch*, and value-less Return have none).
	Result     ValueID
	ResultType Type

	// Binary arithmetic and all comparison kinds.
	LHS, RHS Value

	// Branch kinds.
	Cond                   Value
	TrueBlock, FalseBlock  BlockID
	Target                 BlockID

	// Alloca: the type being allocated (its word count is reserved in the
	// function's frame).
	AllocType Type

	// Store: the value written and the pointer (lvalue) written through.
	StoreVal Value
	StorePtr Value

	// Call: either Callee names a module function, or Intrinsic names a
	// compiler intrinsic (mutually exclusive). Args are pushed right-to-left
	// per the calling convention in spec.md §4.3.
	Callee    FuncID
	Intrinsic string
	Args      []Value

	// Return.
	HasRetVal bool
	RetVal    Value
}

// Block is a basic block: a stable id, a name (for diagnostics only), and
// an ordered instruction list.
type Block struct {
	ID           BlockID
	Name         string
	Instructions []Instruction
}

// Function is one module-level function.
type Function struct {
	ID         FuncID
	Name       string
	Params     []Type
	ReturnType Type

	// StackAllocs lists every alloca's type ahead of time, in the order the
	// InstAlloca instructions appear in the body -- this is what lets
	// the translator size the frame once in the prologue instead of growing
	// it block by block. It is the analogue of fir::Function::getStackAllocations().
	StackAllocs []Type

	Blocks []*Block
}

// GlobalString is a module-level string literal; the translator lays its
// characters into the constant pool in module order.
type GlobalString struct {
	ID    StringID
	Value string
}

// Module is a complete translation unit.
type Module struct {
	GlobalStrings []GlobalString
	Functions     []*Function

	// EntryFunction and GlobalInitFunction name the two functions the
	// module prologue calls, in order (global init, then entry), matching
	// __global_init_function__ / the entry function in the original
	// translator.
	EntryFunction       FuncID
	GlobalInitFunction  FuncID
}
