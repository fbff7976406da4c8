package vm_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lscvm/lscvm/internal/encode"
	"github.com/lscvm/lscvm/internal/vm"
)

// TestLiteralRoundTrips checks the six hand-traced opcode sequences
// spec.md §8 calls out by name.
func TestLiteralRoundTrips(t *testing.T) {
	cases := []struct {
		name, prog, want string
	}{
		{"push 9", "jI", "9"},
		{"18 via add", "jjAI", "18"},
		{"81 via mul", "jjMI", "81"},
		{"1 via sub", "dcSI", "1"},
		{"10 via shortcut", "cfMI", "10"},
		{"42 via mul", "ghMI", "42"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var out bytes.Buffer
			machine := vm.New(vm.WithOutput(&out))
			require.NoError(t, machine.Run(context.Background(), c.prog))
			assert.Equal(t, c.want, out.String())
		})
	}
}

// TestChainedPrints is spec.md §8's third end-to-end scenario: three
// separate decimal prints concatenate in program order.
func TestChainedPrints(t *testing.T) {
	var out bytes.Buffer
	machine := vm.New(vm.WithOutput(&out))
	require.NoError(t, machine.Run(context.Background(), "c I a I c c A I"))
	assert.Equal(t, "204", out.String())
}

// TestEmptyProgram is spec.md §8's first end-to-end scenario.
func TestEmptyProgram(t *testing.T) {
	var out bytes.Buffer
	machine := vm.New(vm.WithOutput(&out))
	require.NoError(t, machine.Run(context.Background(), ""))
	assert.Equal(t, "", out.String())
}

// TestCompareExactlyOnePush checks that J, regardless of operand order,
// consumes exactly two words and pushes exactly one.
func TestCompareExactlyOnePush(t *testing.T) {
	for _, prog := range []string{"abJ", "baJ", "aaJ"} {
		t.Run(prog, func(t *testing.T) {
			machine := vm.New()
			require.NoError(t, machine.Run(context.Background(), prog))
			assert.Len(t, machine.Stack(), 1)
		})
	}
}

// TestHaltConditions checks that each documented failure mode halts with a
// non-nil error rather than panicking out of Run.
func TestHaltConditions(t *testing.T) {
	cases := []struct {
		name, prog string
	}{
		{"data stack underflow", "A"},
		{"call stack underflow", "R"},
		{"read out of bounds", encode.Int(vm.MemorySize+1) + "E"},
		{"call out of bounds", "jC"},
		{"jump out of bounds", "jG"},
		{"division by zero", "aaV"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			machine := vm.New()
			err := machine.Run(context.Background(), c.prog)
			assert.Error(t, err)
		})
	}
}
