package translator

import (
	"fmt"
	"strings"

	"github.com/lscvm/lscvm/internal/encode"
)

// finalize prepends the collected memory initializers to the emitted
// function bodies and patches every relocation placeholder in place, now
// that every function and block's final address is known.
//
// This mirrors the original translator's two-phase relocate() pass:
// absolute relocations (function addresses, used by C) resolve to
// target+relocationOffset; relative relocations (G/Z branch offsets)
// resolve to target-origin, which is already invariant under the prepend
// since both target and origin were recorded in the same pre-prepend
// coordinate space.
//
// Patched values are padded with trailing spaces, never wrapped in
// parens, despite spec.md §3/§4.3 describing the patched form as
// "parenthesized ... for readability". This is a deliberate, recorded
// deviation -- see DESIGN.md's "relocation encoding" entry: vm.Run cleans
// its input before executing it, silently dropping any byte that isn't a
// valid opcode (sanitize.go's clean(), ported from the original
// emulator's cleanInput), and '(' / ')' are not opcodes. A dropped byte
// shifts every address after it, so wrapping the patched value in parens
// would desynchronize every placeholder's width from the 32 bytes the
// addresses recorded during emission assumed, corrupting every relocation
// after the first. Spaces survive cleaning unchanged, so padding with
// them preserves the invariant all the way through to execution.
// encode.Quote's parenthesized form is kept for a future display-only
// dump tool -- never write it into a program this package hands to the
// VM.
func (st *state) finalize() ([]byte, error) {
	var init []byte
	for _, s := range st.memoryInitializers {
		init = append(init, s...)
	}
	st.relocationOffset = int32(len(init))

	full := append(init, st.program...)

	patch := func(placeholderStart int32, symbol string, loc int64) error {
		at := st.relocationOffset + placeholderStart
		if int(at)+maxRelocationSize > len(full) || string(full[at:int(at)+maxRelocationSize]) != emptyRelocation {
			bug("relocation at %d for %q was already written, or out of bounds", placeholderStart, symbol)
		}
		encoded := encode.Int(loc)
		if len(encoded) > maxRelocationSize {
			return SizeError{Symbol: symbol, Detail: fmt.Sprintf("relocated value %d needs %d bytes, only %d available", loc, len(encoded), maxRelocationSize)}
		}
		encoded += strings.Repeat(" ", maxRelocationSize-len(encoded))
		copy(full[at:int(at)+maxRelocationSize], encoded)
		return nil
	}

	for placeholderStart, target := range st.absoluteRelocations {
		addr, symbol := st.resolveTarget(target)
		if err := patch(placeholderStart, symbol, int64(addr)+int64(st.relocationOffset)); err != nil {
			return nil, err
		}
	}

	for placeholderStart, rel := range st.relativeRelocations {
		addr, symbol := st.resolveTarget(rel.target)
		if err := patch(placeholderStart, symbol, int64(addr)-int64(rel.origin)); err != nil {
			return nil, err
		}
	}

	if int32(len(full)) > st.maxProgramSize {
		return nil, SizeError{
			Symbol: "<module>",
			Detail: fmt.Sprintf("compiled program is %d bytes, exceeds the %d-byte limit", len(full), st.maxProgramSize),
		}
	}

	return full, nil
}

// resolveTarget looks up a relocation target's final address, recorded
// during translateFunction's single pass over the module. A miss here is
// always a translator bug: every FuncID/BlockID a lowering rule can name
// was discovered by walking the same module this function's locations were
// recorded from.
func (st *state) resolveTarget(target relocTarget) (int32, string) {
	if target.isFunc {
		addr, ok := st.functionLocations[target.fn]
		if !ok {
			bug("no recorded location for function %d (%s)", target.fn, target.name)
		}
		return addr, fmt.Sprintf("function %d (%s)", target.fn, target.name)
	}
	addr, ok := st.blockLocations[target.blk]
	if !ok {
		bug("no recorded location for block %d (%s)", target.blk, target.name)
	}
	return addr, fmt.Sprintf("block %d (%s)", target.blk, target.name)
}
