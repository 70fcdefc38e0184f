// Package extension discovers PostgreSQL extensions installed on disk: their
// control files, SQL scripts and shared libraries, and the C functions the
// scripts bind.
package extension

import (
	"cmp"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/pgext/pgext-go/pgext"
)

// Files are the files that make up one installed extension.
type Files struct {
	Name        string
	ControlPath string
	// SQLPaths are the scripts to run, in order: the newest install script
	// followed by the update scripts that apply on top of it.
	SQLPaths    []string
	LibraryPath string
	Control     Control
}

var librarySuffixes = []string{".so", ".dylib", ".dll"}

// LoadExtensions finds every extension with a control file in extDir and
// associates its scripts and its library from libDir.
func LoadExtensions(libDir, extDir string) (map[string]*Files, error) {
	extEntries, err := os.ReadDir(extDir)
	if err != nil {
		return nil, errors.Wrap(err, "reading extension directory")
	}
	libEntries, err := os.ReadDir(libDir)
	if err != nil {
		return nil, errors.Wrap(err, "reading library directory")
	}

	exts := make(map[string]*Files)
	for _, entry := range extEntries {
		name, ok := strings.CutSuffix(entry.Name(), ".control")
		if entry.IsDir() || !ok || strings.Contains(name, "--") {
			continue
		}
		exts[name] = &Files{Name: name, ControlPath: filepath.Join(extDir, entry.Name())}
	}

	for _, ext := range exts {
		var scripts []string
		for _, entry := range extEntries {
			if _, ok := DecodeFilenameVersions(ext.Name, entry.Name()); ok && !entry.IsDir() &&
				strings.HasSuffix(entry.Name(), ".sql") {
				scripts = append(scripts, entry.Name())
			}
		}
		ext.SQLPaths = orderScripts(ext.Name, scripts)
		for i, script := range ext.SQLPaths {
			ext.SQLPaths[i] = filepath.Join(extDir, script)
		}
		ext.LibraryPath = findLibrary(ext.Name, libDir, libEntries)

		if err := ext.loadControl(); err != nil {
			return nil, err
		}
	}
	logrus.WithFields(logrus.Fields{
		"extensions": len(exts),
		"dir":        extDir,
	}).Debug("loaded extension catalog")
	return exts, nil
}

// orderScripts sorts script names by version and drops everything before
// the newest install script, since older install and update scripts are
// superseded by it.
func orderScripts(name string, scripts []string) []string {
	slices.SortFunc(scripts, func(a, b string) int {
		va, _ := DecodeFilenameVersions(name, a)
		vb, _ := DecodeFilenameVersions(name, b)
		return cmp.Or(cmp.Compare(va.From, vb.From), cmp.Compare(va.To, vb.To))
	})
	start := 0
	for i, script := range scripts {
		if v, _ := DecodeFilenameVersions(name, script); !v.IsUpdate() {
			start = i
		}
	}
	return scripts[start:]
}

func findLibrary(name, libDir string, entries []os.DirEntry) string {
	var fallback string
	for _, entry := range entries {
		fileName := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(fileName, name+".") {
			continue
		}
		if slices.Contains(librarySuffixes, filepath.Ext(fileName)) {
			return filepath.Join(libDir, fileName)
		}
		fallback = filepath.Join(libDir, fileName)
	}
	return fallback
}

func (f *Files) loadControl() error {
	file, err := os.Open(f.ControlPath)
	if err != nil {
		return errors.Wrapf(err, "could not open extension control file %q", f.ControlPath)
	}
	defer file.Close()
	f.Control, err = ParseControl(f.Name, file)
	return err
}

// LoadSQLFiles returns the contents of the extension's scripts in execution
// order.
func (f *Files) LoadSQLFiles() ([]string, error) {
	contents := make([]string, len(f.SQLPaths))
	for i, path := range f.SQLPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading script of extension %q", f.Name)
		}
		contents[i] = string(data)
	}
	return contents, nil
}

// LoadLibrary loads the extension's shared library with every C function
// its scripts declare. The functions carry the signatures from the scripts.
func (f *Files) LoadLibrary() (*pgext.Library, error) {
	if f.LibraryPath == "" {
		return nil, errors.Newf("extension %q does not reference a library", f.Name)
	}
	decls, err := f.LoadSQLFunctionSignatures()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(decls))
	for _, decl := range decls {
		names = append(names, decl.Symbol)
	}
	lib, err := pgext.LoadLibrary(f.LibraryPath, names)
	if err != nil {
		return nil, err
	}
	for _, decl := range decls {
		if fn, ok := lib.Function(decl.Symbol); ok && fn.Signature == nil {
			sig := decl.Signature
			fn.Signature = &sig
		}
	}
	return lib, nil
}
