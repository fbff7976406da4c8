// Package translator lowers an internal/ir.Module into an LSVM program: a
// single pass over the module's functions and blocks, emitting one growing
// byte string with 32-byte all-space placeholders for anything that can't
// be known until every function's address is known, followed by a
// finalization pass that patches those placeholders in place.
//
// This is a direct port of source/backend/lscvm/translator.cpp's
// performCompilation, generalized per spec.md's redesign notes: a single
// exhaustive switch over a closed ir.InstKind replaces the virtual-method
// dispatch, and the FTContext global is replaced by the *state this
// package threads explicitly.
package translator

import (
	"fmt"
	"math"

	"github.com/lscvm/lscvm/internal/encode"
	"github.com/lscvm/lscvm/internal/ir"
)

// Fixed layout constants, shared with package vm -- the translator's job is
// precisely to emit code that respects these.
const (
	wordSize          = 4
	stackPointerAddr  = 0x10000
	stackFrameAddr    = 0x10001
	constantPoolBase  = 0x12000
	maxProgramSize    = 0x2000
	maxRelocationSize = 32

	emptyRelocation = "                                " // 32 spaces
)

// compileError marks a translator invariant violation: a bug in this
// package, or an IR shape it doesn't yet handle, never a property of valid
// user input. Never returned to a caller that would try to recover from it
// programmatically -- it's always a bug report.
type compileError struct{ mess string }

func (e compileError) Error() string { return "translator bug: " + e.mess }

func bug(format string, args ...interface{}) {
	panic(compileError{fmt.Sprintf(format, args...)})
}

// SizeError reports that the compiled program, or one relocation within it,
// exceeded the VM's fixed limits. Unlike compileError, this can legitimately
// happen for a large enough input program and should be reported to the
// user identifying the offending symbol, per spec.md §7.
type SizeError struct {
	Symbol string
	Detail string
}

func (e SizeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Symbol, e.Detail)
}

type relocTarget struct {
	isFunc bool
	fn     ir.FuncID
	blk    ir.BlockID
	name   string // for diagnostics
}

type relativeTarget struct {
	target relocTarget
	origin int32
}

// state is the translator's scratch space for one module compilation --
// constructed once, discarded once Translate returns.
type state struct {
	program []byte

	relocationOffset int32

	memoryValueMap      map[ir.StringID]int32
	memoryInitializers  []string
	constantPoolWatermark int32

	functionLocations map[ir.FuncID]int32
	blockLocations    map[ir.BlockID]int32

	absoluteRelocations map[int32]relocTarget
	relativeRelocations map[int32]relativeTarget

	cachedConstants map[constKey]string

	// per-function scratch, reset at the top of each function
	currentStackFrameSize int32
	stackFrameValueMap    map[ir.ValueID]int32
	currentStackOffset    int
	stackValues           map[ir.ValueID]int
	currentFrameWatermark int32

	// savedSPOffset is the stack offset (from the frame bottom) of the
	// caller's stack-pointer value, pushed by the prologue and consumed by
	// every return site -- always equal to the function's parameter count.
	savedSPOffset int

	logf           func(mess string, args ...interface{})
	maxProgramSize int32
}

// Option configures Translate, in the same functional-options style as
// package vm's Option -- see vm/options.go.
type Option interface{ apply(st *state) }

type optionFunc func(st *state)

func (f optionFunc) apply(st *state) { f(st) }

// WithLogf installs a trace sink, called once per function as it is laid
// out. nil (the default) disables tracing.
func WithLogf(logf func(mess string, args ...interface{})) Option {
	return optionFunc(func(st *state) { st.logf = logf })
}

// WithMaxProgramSize overrides maxProgramSize, the limit finalize() enforces
// on the completed program -- for tests that want to exercise the SizeError
// path without constructing a multi-kilobyte module.
func WithMaxProgramSize(n int32) Option {
	return optionFunc(func(st *state) { st.maxProgramSize = n })
}

func (st *state) tracef(mess string, args ...interface{}) {
	if st.logf != nil {
		st.logf(mess, args...)
	}
}

type constKey struct {
	value int64
	words int
}

// Translate lowers mod into a finished LSVM program. Any compileError
// recovered during lowering is returned as a plain error; a SizeError from
// an oversized program or relocation is returned as-is.
func Translate(mod *ir.Module, opts ...Option) (prog []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case compileError:
				err = e
			case SizeError:
				err = e
			default:
				panic(r)
			}
		}
	}()

	st := &state{
		memoryValueMap:      map[ir.StringID]int32{},
		functionLocations:   map[ir.FuncID]int32{},
		blockLocations:      map[ir.BlockID]int32{},
		absoluteRelocations: map[int32]relocTarget{},
		relativeRelocations: map[int32]relativeTarget{},
		cachedConstants:     map[constKey]string{},
		constantPoolWatermark: constantPoolBase,
		maxProgramSize:      maxProgramSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(st)
		}
	}

	st.layoutGlobalStrings(mod)
	st.emitStackPointerInit()
	st.emitModulePrologue(mod)

	for _, fn := range mod.Functions {
		if len(fn.Blocks) == 0 {
			continue
		}
		st.tracef("translating function %d (%s)", fn.ID, fn.Name)
		st.translateFunction(fn)
	}

	return st.finalize()
}

func (st *state) emit(s string) { st.program = append(st.program, s...) }

func (st *state) here() int32 { return int32(len(st.program)) }

// addRelocation reserves a 32-byte placeholder for an absolute address,
// recording what it must eventually resolve to.
func (st *state) addRelocation(target relocTarget) {
	st.absoluteRelocations[st.here()] = target
	st.emit(emptyRelocation)
}

// addRelativeRelocation reserves a 32-byte placeholder for a relative
// offset. origin is the pc the offset is relative to; by convention that's
// the byte immediately following the G/Z opcode that consumes it, i.e. one
// past the placeholder-and-opcode pair -- callers compute it before the
// placeholder is reserved, as here() + maxRelocationSize + 1.
func (st *state) addRelativeRelocation(target relocTarget, origin int32) {
	st.relativeRelocations[st.here()] = relativeTarget{target: target, origin: origin}
	st.emit(emptyRelocation)
}

func funcTarget(fn ir.FuncID, name string) relocTarget { return relocTarget{isFunc: true, fn: fn, name: name} }
func blockTarget(b ir.BlockID, name string) relocTarget { return relocTarget{isFunc: false, blk: b, name: name} }

func (st *state) layoutGlobalStrings(mod *ir.Module) {
	for _, gs := range mod.GlobalStrings {
		var init string
		loc := st.constantPoolWatermark
		for _, c := range gs.Value {
			init += encode.Int(int64(c)) + encode.Int(int64(st.constantPoolWatermark)) + "K"
			st.constantPoolWatermark++
		}
		st.memoryInitializers = append(st.memoryInitializers, init)
		st.memoryValueMap[gs.ID] = loc
	}
}

func (st *state) emitStackPointerInit() {
	init := encode.Int(stackFrameAddr) + encode.Int(stackPointerAddr) + "K"
	st.memoryInitializers = append(st.memoryInitializers, init)
}

func (st *state) emitModulePrologue(mod *ir.Module) {
	st.addRelocation(funcTarget(mod.GlobalInitFunction, "__lscvm_global_init__"))
	st.emit("C")

	st.addRelocation(funcTarget(mod.EntryFunction, "main"))
	st.emit("C")

	st.emit("B")
}

func sizeInWords(t ir.Type) int {
	if t.Words <= 0 {
		return 0
	}
	return t.Words
}

// paramID returns a synthetic ValueID for the i'th parameter of whatever
// function is currently being translated -- guaranteed not to collide with
// any real instruction result id, which are allocated from 1 upward by
// ir.Builder.
func paramID(i int) ir.ValueID { return ir.ValueID(math.MaxUint64 - uint64(i)) }

func (st *state) translateFunction(fn *ir.Function) {
	st.stackValues = map[ir.ValueID]int{}
	st.currentStackOffset = len(fn.Params)
	st.stackFrameValueMap = map[ir.ValueID]int32{}
	st.currentFrameWatermark = 0

	st.functionLocations[fn.ID] = st.here()

	// Parameters arrive on the data stack pushed right-to-left by the
	// caller, so the first parameter ends up shallowest (nearest the top).
	n := len(fn.Params)
	for i := 0; i < n; i++ {
		st.stackValues[paramID(i)] = n - 1 - i
	}
	st.savedSPOffset = n

	st.currentStackFrameSize = 0
	for _, t := range fn.StackAllocs {
		st.currentStackFrameSize += int32(sizeInWords(t))
	}

	// Prologue: push the caller's stack pointer value (every return site
	// restores memory[stackPointerAddr] from this before popping back),
	// then bump the real pointer past this frame's spill slots.
	st.emit(encode.Int(stackPointerAddr) + "E")
	st.emit("a" + "F") // duplicate the value just read: push 0, F
	st.emit(encode.Int(int64(st.currentStackFrameSize)) + "A")
	st.emit(encode.Int(stackPointerAddr) + "K")
	st.currentStackOffset++ // the surviving copy of the caller's SP

	for _, blk := range fn.Blocks {
		st.blockLocations[blk.ID] = st.here()
		for i := range blk.Instructions {
			st.lower(fn, &blk.Instructions[i])
		}
	}
}
