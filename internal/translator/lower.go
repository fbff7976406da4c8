package translator

import (
	"github.com/lscvm/lscvm/internal/encode"
	"github.com/lscvm/lscvm/internal/ir"
)

// sub emits code computing x - y, given code that each push exactly one
// word: the VM's S instruction is (second-pushed) - (first-pushed) once
// popped in LIFO order -- see exec.go's "a, b := pop(), pop(); push(a-b)",
// where a is whatever was pushed last. So x - y needs y pushed first.
func sub(x, y string) string { return y + x + "S" }

// div emits code computing x / y, by the same pop-order reasoning as sub.
func div(x, y string) string { return y + x + "V" }

// cmp emits code pushing sign(x - y) as a wrapped uint32 in {-1, 0, 1},
// using the 3-way compare opcode J. J computes sign(second-pushed minus
// first-pushed); to get sign(x-y) we need x pushed second (on top).
func cmp(x, y string) string { return y + x + "J" }

// zeroTail, given a value already on top of the stack, consumes it and
// replaces it with 1 if it was zero, 0 otherwise. It is a fixed six-byte
// tail (CONST_3, Z, CONST_0, CONST_1, G, CONST_1 in the original's opcode
// names) whose jump distances are independent of whatever pushed the value
// being tested, so it can be appended after any value-producing code.
const zeroTail = "dZabGb"

// nonZeroTail is zeroTail with the two branches' pushed constants swapped:
// 1 if the tested value was nonzero, 0 if it was zero.
const nonZeroTail = "dZbbGa"

func (st *state) lower(fn *ir.Function, inst *ir.Instruction) {
	switch inst.Kind {
	case ir.InstAdd:
		st.emit(st.getOperand(inst.LHS) + st.getOperand(inst.RHS) + "A")
		st.recordResult(inst)

	case ir.InstSub:
		st.emit(sub(st.getOperand(inst.LHS), st.getOperand(inst.RHS)))
		st.recordResult(inst)

	case ir.InstMul:
		st.emit(st.getOperand(inst.LHS) + st.getOperand(inst.RHS) + "M")
		st.recordResult(inst)

	case ir.InstDiv:
		st.emit(div(st.getOperand(inst.LHS), st.getOperand(inst.RHS)))
		st.recordResult(inst)

	case ir.InstICmpEQ:
		st.emit(sub(st.getOperand(inst.LHS), st.getOperand(inst.RHS)) + zeroTail)
		st.recordResult(inst)

	case ir.InstICmpNE:
		st.emit(sub(st.getOperand(inst.LHS), st.getOperand(inst.RHS)) + nonZeroTail)
		st.recordResult(inst)

	case ir.InstICmpGT:
		// sign(lhs-rhs) - 1 == 0  iff  lhs > rhs
		st.emit(cmp(st.getOperand(inst.LHS), st.getOperand(inst.RHS)) + "b" + "S" + zeroTail)
		st.recordResult(inst)

	case ir.InstICmpLT:
		// sign(lhs-rhs) + 1 == 0  iff  lhs < rhs
		st.emit(cmp(st.getOperand(inst.LHS), st.getOperand(inst.RHS)) + "b" + "A" + zeroTail)
		st.recordResult(inst)

	case ir.InstICmpGE:
		// sign(lhs-rhs) + 1 != 0  iff  lhs not< rhs  iff  lhs >= rhs
		st.emit(cmp(st.getOperand(inst.LHS), st.getOperand(inst.RHS)) + "b" + "A" + nonZeroTail)
		st.recordResult(inst)

	case ir.InstICmpLE:
		// sign(lhs-rhs) - 1 != 0  iff  lhs not> rhs  iff  lhs <= rhs
		st.emit(cmp(st.getOperand(inst.LHS), st.getOperand(inst.RHS)) + "b" + "S" + nonZeroTail)
		st.recordResult(inst)

	case ir.InstICmpMulti:
		// raw sign(lhs-rhs) in {-1, 0, 1}, undecorated -- for callers that
		// want the ordering directly rather than a single boolean.
		st.emit(cmp(st.getOperand(inst.LHS), st.getOperand(inst.RHS)))
		st.recordResult(inst)

	case ir.InstBranchCond:
		st.lowerBranchCond(inst)

	case ir.InstBranchUncond:
		st.lowerBranch(blockTarget(inst.Target, ""))

	case ir.InstAlloca:
		st.lowerAlloca(inst)

	case ir.InstStore:
		st.lowerStore(inst)

	case ir.InstCall:
		st.lowerCall(inst)

	case ir.InstReturn:
		st.lowerReturn(inst)

	default:
		bug("unhandled instruction kind %d", inst.Kind)
	}
}

func (st *state) recordResult(inst *ir.Instruction) {
	if inst.Result == 0 {
		return
	}
	st.stackValues[inst.Result] = st.currentStackOffset
	st.currentStackOffset++
}

// getOperand returns the code that pushes v's value onto the top of the
// stack, dereferencing through an alloca address when v names one -- the
// one piece of "automatic lvalue-to-rvalue load" this IR has, matching the
// original translator's getValue()+decay().
func (st *state) getOperand(v ir.Value) string {
	switch v.Kind {
	case ir.ValConst:
		return st.createConstant(v)

	case ir.ValGlobalString:
		addr, ok := st.memoryValueMap[v.Str]
		if !ok {
			bug("no memory location for global string %d", v.Str)
		}
		return encode.Int(int64(addr))

	case ir.ValParam:
		return st.fetchStackResident(paramID(v.ParamIndex))

	case ir.ValRef:
		if frameOfs, ok := st.stackFrameValueMap[v.Ref]; ok {
			return st.calcFrameAddr(frameOfs) + "E"
		}
		return st.fetchStackResident(v.Ref)

	default:
		bug("value kind %d is not a usable operand", v.Kind)
		return ""
	}
}

// fetchStackResident emits a non-destructive fetch (F) of a value that
// lives at a known, fixed depth on the data stack -- the value stays
// resident afterwards, so it can be fetched again later in the same
// function.
func (st *state) fetchStackResident(id ir.ValueID) string {
	ofs, ok := st.stackValues[id]
	if !ok {
		bug("no stack location for value %d", id)
	}
	depth := st.currentStackOffset - 1 - ofs
	return encode.Int(int64(depth)) + "F"
}

// calcFrameAddr computes the absolute memory address of a stack-frame slot
// at frameOfs words from the frame's base: memory[stackPointerAddr] holds
// this frame's (already-bumped) stack pointer, sitting exactly
// currentStackFrameSize words past the frame base, so
// addr = SP - (currentStackFrameSize - frameOfs).
func (st *state) calcFrameAddr(frameOfs int32) string {
	delta := st.currentStackFrameSize - frameOfs
	return sub(encode.Int(stackPointerAddr)+"E", encode.Int(int64(delta)))
}

func (st *state) createConstant(v ir.Value) string {
	key := constKey{value: v.ConstValue, words: sizeInWords(v.ConstType)}
	if s, ok := st.cachedConstants[key]; ok {
		return s
	}
	s := encode.Int(v.ConstValue)
	// Constants wider than one word are zero-extended in the high words --
	// this backend never materializes an integer wider than 32 bits, so
	// there's nothing meaningful to put there.
	for i := 1; i < sizeInWords(v.ConstType); i++ {
		s += "a"
	}
	st.cachedConstants[key] = s
	return s
}

func (st *state) lowerBranch(target relocTarget) {
	origin := st.here() + maxRelocationSize + 1 // the relative jump resolves against the byte right after 'G'
	st.addRelativeRelocation(target, origin)
	st.emit("G")
}

func (st *state) lowerBranchCond(inst *ir.Instruction) {
	st.emit(st.getOperand(inst.Cond))

	falseOrigin := st.here() + maxRelocationSize + 1
	st.addRelativeRelocation(blockTarget(inst.FalseBlock, ""), falseOrigin)
	st.emit("Z")

	st.lowerBranch(blockTarget(inst.TrueBlock, ""))
}

func (st *state) lowerAlloca(inst *ir.Instruction) {
	words := int32(sizeInWords(inst.AllocType))
	frameOfs := st.currentFrameWatermark
	st.currentFrameWatermark += words
	st.stackFrameValueMap[inst.Result] = frameOfs

	for i := int32(0); i < words; i++ {
		st.emit("a" + st.calcFrameAddr(frameOfs+i) + "K") // zero-initialize
	}
}

func (st *state) lowerStore(inst *ir.Instruction) {
	if inst.StorePtr.Kind != ir.ValRef {
		bug("store target is not an lvalue")
	}
	frameOfs, ok := st.stackFrameValueMap[inst.StorePtr.Ref]
	if !ok {
		bug("store target %d is not a stack-frame slot", inst.StorePtr.Ref)
	}
	st.emit(st.getOperand(inst.StoreVal) + st.calcFrameAddr(frameOfs) + "K")
}

func (st *state) lowerCall(inst *ir.Instruction) {
	switch inst.Intrinsic {
	case ir.IntrinsicPrintChar:
		st.emit(st.getOperand(inst.Args[0]) + "P")
		return
	case ir.IntrinsicPrintInt:
		st.emit(st.getOperand(inst.Args[0]) + "I")
		return
	}

	for i := len(inst.Args) - 1; i >= 0; i-- {
		st.emit(st.getOperand(inst.Args[i]))
	}
	st.addRelocation(funcTarget(inst.Callee, ""))
	st.emit("C")

	st.recordResult(inst)
}

// lowerReturn restores the caller's stack pointer, discards every value
// this function pushed (down to, and including, the saved stack pointer),
// and returns -- the epilogue is inlined at every return site rather than
// shared, since a shared exit block would need its own relocation.
func (st *state) lowerReturn(inst *ir.Instruction) {
	hasRet := inst.HasRetVal
	if hasRet {
		st.emit(st.getOperand(inst.RetVal))
	}

	savedSPDepth := st.currentStackOffset - 1 - st.savedSPOffset
	if hasRet {
		savedSPDepth++
	}
	st.emit(encode.Int(int64(savedSPDepth)) + "H")
	st.emit(encode.Int(stackPointerAddr) + "K")

	// The H+K pair above nets out to one fewer stack entry (H moved the
	// saved stack pointer to the top, then K popped it and the address). What's left to
	// clear is this frame's original entries minus that one: every local
	// and argument, but not the return value riding on top, if any.
	remaining := st.currentStackOffset - 1
	if hasRet {
		for i := 0; i < remaining; i++ {
			st.emit("b" + "H" + "D") // remove what's now second-from-top, keep the return value on top
		}
	} else {
		for i := 0; i < remaining; i++ {
			st.emit("D")
		}
	}

	st.emit("R")
}
