package extension

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// installTree lays out a fake installation: extDir holds control files and
// scripts, libDir the libraries.
func installTree(t *testing.T) (libDir, extDir string) {
	t.Helper()
	root := t.TempDir()
	libDir = filepath.Join(root, "lib")
	extDir = filepath.Join(root, "extension")
	require.NoError(t, os.MkdirAll(libDir, 0o755))
	require.NoError(t, os.MkdirAll(extDir, 0o755))

	write := func(dir, name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write(extDir, "cube.control", "default_version = '1.5'\nmodule_pathname = '$libdir/cube'\nrelocatable = true\n")
	write(extDir, "cube--1.2.sql", "CREATE FUNCTION cube_old(int4) RETURNS int4 AS 'MODULE_PATHNAME' LANGUAGE C;")
	write(extDir, "cube--1.4.sql", cubeScript)
	write(extDir, "cube--1.2--1.3.sql", "-- superseded")
	write(extDir, "cube--1.4--1.5.sql",
		"CREATE FUNCTION cube_is_point(cube) RETURNS bool AS 'MODULE_PATHNAME', 'cube_is_point' LANGUAGE C STRICT;")
	write(extDir, "cube--1.0.control", "directory = 'old'\n")
	write(libDir, "cube.so", "not really a shared object")
	write(libDir, "cube.a", "")

	write(extDir, "plsample.control", "default_version = '1.0'\n")
	write(extDir, "plsample--1.0.sql", "CREATE FUNCTION f() RETURNS int4 LANGUAGE sql AS 'SELECT 1';")

	write(extDir, "README", "ignored")
	return libDir, extDir
}

func TestLoadExtensions(t *testing.T) {
	libDir, extDir := installTree(t)

	exts, err := LoadExtensions(libDir, extDir)
	require.NoError(t, err)
	require.Len(t, exts, 2)

	cube := exts["cube"]
	require.NotNil(t, cube)
	require.Equal(t, filepath.Join(extDir, "cube.control"), cube.ControlPath)
	require.Equal(t, NewVersion(1, 5), cube.Control.DefaultVersion)
	require.Equal(t, filepath.Join(libDir, "cube.so"), cube.LibraryPath)
	require.Equal(t, []string{
		filepath.Join(extDir, "cube--1.4.sql"),
		filepath.Join(extDir, "cube--1.4--1.5.sql"),
	}, cube.SQLPaths)

	plsample := exts["plsample"]
	require.NotNil(t, plsample)
	require.Empty(t, plsample.LibraryPath)

	scripts, err := cube.LoadSQLFiles()
	require.NoError(t, err)
	require.Len(t, scripts, 2)
	require.Equal(t, cubeScript, scripts[0])
}

func TestLoadSQLFunctionNames(t *testing.T) {
	libDir, extDir := installTree(t)
	exts, err := LoadExtensions(libDir, extDir)
	require.NoError(t, err)

	names, err := exts["cube"].LoadSQLFunctionNames()
	require.NoError(t, err)
	require.Equal(t, []string{"cube_dim", "cube_f8_f8", "cube_in", "cube_is_point", "cube_names", "distance_km"}, names)

	decls, err := exts["cube"].LoadSQLFunctionSignatures()
	require.NoError(t, err)
	require.Equal(t, "cube_in", decls[0].Symbol)
	require.Equal(t, "cube_is_point", decls[len(decls)-1].Symbol)

	names, err = exts["plsample"].LoadSQLFunctionNames()
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestLoadLibraryErrors(t *testing.T) {
	libDir, extDir := installTree(t)
	exts, err := LoadExtensions(libDir, extDir)
	require.NoError(t, err)

	_, err = exts["plsample"].LoadLibrary()
	require.ErrorContains(t, err, "does not reference a library")

	_, err = exts["cube"].LoadLibrary()
	require.Error(t, err)
}

func TestLoadExtensionsMissingDirectory(t *testing.T) {
	_, err := LoadExtensions(t.TempDir(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestOrderScripts(t *testing.T) {
	got := orderScripts("x", []string{"x--2.0.sql", "x--1.0--1.1.sql", "x--1.0.sql", "x--2.0--2.1.sql", "x--1.1--2.0.sql"})
	require.Equal(t, []string{"x--2.0.sql", "x--2.0--2.1.sql"}, got)

	got = orderScripts("x", []string{"x--1.0--1.1.sql"})
	require.Equal(t, []string{"x--1.0--1.1.sql"}, got)
}
