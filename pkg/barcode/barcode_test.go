package barcode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubecard/api/pkg/barcode"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	code, err := barcode.Generate()
	require.NoError(t, err)
	assert.Len(t, code, barcode.Length)
	for _, c := range code {
		assert.True(t, c >= '0' && c <= '9', "unexpected character %q", c)
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		code, err := barcode.Generate()
		require.NoError(t, err)
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate barcode %s after %d draws", code, len(seen))
		}
		seen[code] = struct{}{}
	}
}
