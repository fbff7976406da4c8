package conformance_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"

	"github.com/lscvm/lscvm/internal/conformance"
	"github.com/lscvm/lscvm/internal/demo"
)

func TestRunAllMatchesGoldens(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results, err := conformance.RunAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, len(demo.All()))

	for _, r := range results {
		assert.NoErrorf(t, r.Err, "program %q", r.Name)
		assert.Truef(t, r.OK(), "program %q: got %q, want %q", r.Name, r.Got, r.Golden)
	}

	_, mismatched := conformance.FirstMismatch(results)
	assert.False(t, mismatched)
}
