package extension

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLibraryIdentifier(t *testing.T) {
	id := NewLibraryIdentifier("earthdistance", NewVersion(1, 2))
	require.NoError(t, id.Validate())
	require.Equal(t, "00"+Platform+"0000065538earthdistance", string(id))
	require.Equal(t, Platform, id.Platform())
	require.Equal(t, NewVersion(1, 2), id.Version())
	require.Equal(t, "earthdistance", id.ExtensionName())
	require.Equal(t, "earthdistance--1.2:"+Platform, id.DisplayString())
}

func TestLibraryIdentifierMalformed(t *testing.T) {
	for _, id := range []LibraryIdentifier{"", "00lnx", "01lnx0000065538cube", "00lnx00000x5538cube", "00lnx0000065538"} {
		require.Error(t, id.Validate(), string(id))
	}
	require.Zero(t, LibraryIdentifier("00lnx").Version())
	require.Empty(t, LibraryIdentifier("00lnx").ExtensionName())
}

func TestPlatformCode(t *testing.T) {
	require.Equal(t, "lnx", platformCode("linux"))
	require.Equal(t, "mac", platformCode("darwin"))
	require.Equal(t, "win", platformCode("windows"))
	require.Equal(t, "unk", platformCode("plan9"))
}
