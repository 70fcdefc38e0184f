package extension

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryExtension(t *testing.T) {
	libDir, extDir := installTree(t)
	reg := NewRegistry(libDir, extDir)
	defer reg.Close()

	ext, err := reg.Extension("cube")
	require.NoError(t, err)
	require.Equal(t, "cube", ext.Name)

	_, err = reg.Extension("hstore")
	require.ErrorContains(t, err, `could not open extension control file "hstore.control"`)

	all, err := reg.Extensions()
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestRegistryCachesLoadError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	reg := NewRegistry(missing, missing)

	_, err := reg.Extension("cube")
	require.Error(t, err)
	_, err2 := reg.Extension("cube")
	require.Same(t, err, err2)

	id := NewLibraryIdentifier("cube", NewVersion(1, 5))
	require.Equal(t, []InvalidIdentifier{{Identifier: id, Reason: MissingLibrary}}, reg.FindInvalidIdentifiers(id))
}

func TestRegistryFindInvalidIdentifiers(t *testing.T) {
	libDir, extDir := installTree(t)
	reg := NewRegistry(libDir, extDir)

	valid := NewLibraryIdentifier("cube", NewVersion(1, 5))
	oldVersion := NewLibraryIdentifier("cube", NewVersion(1, 4))
	noLibrary := NewLibraryIdentifier("plsample", NewVersion(1, 0))
	unknown := NewLibraryIdentifier("hstore", NewVersion(1, 0))
	otherPlatform := LibraryIdentifier("00zzz0000065541cube")
	malformed := LibraryIdentifier("garbage")

	require.Empty(t, reg.FindInvalidIdentifiers(valid))
	require.Equal(t, []InvalidIdentifier{
		{Identifier: oldVersion, Reason: InvalidVersion},
		{Identifier: noLibrary, Reason: MissingLibrary},
		{Identifier: unknown, Reason: MissingLibrary},
		{Identifier: otherPlatform, Reason: MismatchedPlatform},
		{Identifier: malformed, Reason: MalformedIdentifier},
	}, reg.FindInvalidIdentifiers(valid, oldVersion, noLibrary, unknown, otherPlatform, malformed))
}

func TestRegistryFunctionErrors(t *testing.T) {
	libDir, extDir := installTree(t)
	reg := NewRegistry(libDir, extDir)
	defer reg.Close()

	_, err := reg.Function("00zzz0000065541cube", "cube_dim")
	require.ErrorContains(t, err, "different platform")

	_, err = reg.Function("short", "cube_dim")
	require.Error(t, err)

	_, err = reg.Function(NewLibraryIdentifier("hstore", NewVersion(1, 0)), "hstore_in")
	require.ErrorContains(t, err, "hstore.control")

	// cube.so in the fake tree is not a loadable object.
	_, err = reg.Function(NewLibraryIdentifier("cube", NewVersion(1, 5)), "cube_dim")
	require.Error(t, err)
}

func TestInvalidReasonString(t *testing.T) {
	require.Equal(t, "mismatched platform", MismatchedPlatform.String())
	require.Equal(t, "invalid version", InvalidVersion.String())
}
