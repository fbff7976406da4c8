package encode_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lscvm/lscvm/internal/encode"
	"github.com/lscvm/lscvm/internal/vm"
)

// TestIntRoundTrip checks that every integer in [-10000, 10000], when
// encoded and then executed from an empty stack followed by a decimal
// print, prints back its own decimal value -- spec.md §8's encoder
// round-trip property.
func TestIntRoundTrip(t *testing.T) {
	for n := int64(-10000); n <= 10000; n++ {
		n := n
		t.Run(fmt.Sprintf("%d", n), func(t *testing.T) {
			var out bytes.Buffer
			machine := vm.New(vm.WithOutput(&out))
			err := machine.Run(context.Background(), encode.Int(n)+"I")
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("%d", n), out.String())
		})
	}
}

// TestIntDeterministic checks that Int is a pure function: same input,
// same output, every time.
func TestIntDeterministic(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 42, -42, 10000, -10000, 203} {
		want := encode.Int(n)
		for i := 0; i < 5; i++ {
			assert.Equal(t, want, encode.Int(n))
		}
	}
}

// TestIntAlphabet checks that Int never emits anything outside the
// documented opcode alphabet: digit pushes 'a'-'j' and the arithmetic
// operators 'A', 'S', 'M'.
func TestIntAlphabet(t *testing.T) {
	const allowed = "abcdefghijASM"
	for n := int64(-2000); n <= 2000; n += 7 {
		s := encode.Int(n)
		for _, c := range s {
			assert.Containsf(t, allowed, string(c), "Int(%d) = %q used disallowed byte %q", n, s, c)
		}
	}
}
