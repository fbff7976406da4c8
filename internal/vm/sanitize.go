package vm

import "fmt"

// clean strips comments and validates a raw program string into the opcode
// byte sequence the dispatch loop executes, exactly as the original
// emulator's cleanInput does: ';' introduces a line comment; any
// whitespace character becomes a plain space (so that cycle counts stay
// stable); '?' and '!' pass through as debugger no-ops; anything else that
// isn't a valid opcode is dropped with a warning rather than failing the
// whole load -- a stray byte in a hand-written program is a nuisance, not a
// reason to refuse to run it.
func clean(input string) (instrs []byte, warnings []string) {
	instrs = make([]byte, 0, len(input))

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		c := runes[i]

		switch {
		case c == ';':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			if i < len(runes) {
				instrs = append(instrs, ' ') // the newline itself is a no-op
			}

		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\v' || c == '\f':
			instrs = append(instrs, ' ')

		case c == '?' || c == '!':
			instrs = append(instrs, byte(c))

		case isValidOpcode(c):
			instrs = append(instrs, byte(c))

		default:
			warnings = append(warnings, fmt.Sprintf("skipping invalid input character %q", c))
		}
	}

	return instrs, warnings
}

// invalidUpper holds the uppercase letters that are NOT opcodes, even
// though they're alphabetic; every other uppercase letter from A-Z names an
// instruction (see exec.go's dispatch switch).
var invalidUpper = map[rune]bool{
	'L': true, 'N': true, 'O': true, 'Q': true,
	'T': true, 'U': true, 'W': true, 'X': true, 'Y': true,
}

func isValidOpcode(c rune) bool {
	if c >= 'a' && c <= 'j' {
		return true // digit pushes
	}
	if c >= 'k' && c <= 'z' {
		return false // no opcode lives here
	}
	if c >= 'A' && c <= 'Z' {
		return !invalidUpper[c]
	}
	return false
}
