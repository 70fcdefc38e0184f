//go:build linux || darwin

package internal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntryPointsExported(t *testing.T) {
	for _, name := range EntryPoints {
		p, err := HostSymbol(name)
		require.NoError(t, err, name)
		require.NotNil(t, p, name)
	}
	require.NoError(t, VerifyExports())

	_, err := HostSymbol("pgext_no_such_symbol")
	require.ErrorContains(t, err, `host does not export "pgext_no_such_symbol"`)
}
