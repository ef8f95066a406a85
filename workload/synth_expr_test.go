package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArrivalFunc_ValidGrammar(t *testing.T) {
	fn, err := parseArrivalFunc("int(t/2 + 1) if t < 10 else None")
	require.NoError(t, err)

	n, ok := fn(0)
	require.True(t, ok)
	assert.Equal(t, 1, n)

	n, ok = fn(4)
	require.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = fn(10)
	assert.False(t, ok)
}

func TestParseArrivalFunc_RejectsFreeFormCode(t *testing.T) {
	for _, expr := range []string{
		"os.system('rm -rf /')",
		"t ** 2",
		"int(t / 2 + 1)", // missing "if ... else None"
		"",
		"int(t/0 + 1) if t < 10 else None", // zero divisor
	} {
		_, err := parseArrivalFunc(expr)
		assert.Error(t, err, expr)
	}
}
