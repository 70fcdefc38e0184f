package extension

import (
	"maps"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/pgext/pgext-go/pgext"
)

// Registry gives access to the extensions installed in one pair of library
// and extension directories. The catalog is read on first use; if that fails
// the error is kept and returned from then on. Libraries are opened on first
// use and stay open until Close.
type Registry struct {
	libDir string
	extDir string

	extMu   sync.Mutex
	exts    map[string]*Files
	loadErr error

	libMu sync.Mutex
	libs  map[string]*pgext.Library
}

// NewRegistry creates a registry over the given directories. Nothing is read
// until the first lookup.
func NewRegistry(libDir, extDir string) *Registry {
	return &Registry{
		libDir: libDir,
		extDir: extDir,
		libs:   make(map[string]*pgext.Library),
	}
}

// catalog returns the loaded extensions. extMu must be held.
func (r *Registry) catalog() (map[string]*Files, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	if r.exts == nil {
		exts, err := LoadExtensions(r.libDir, r.extDir)
		if err != nil {
			r.loadErr = err
			return nil, err
		}
		r.exts = exts
	}
	return r.exts, nil
}

// Extension returns the named extension.
func (r *Registry) Extension(name string) (*Files, error) {
	r.extMu.Lock()
	defer r.extMu.Unlock()

	exts, err := r.catalog()
	if err != nil {
		return nil, err
	}
	ext, ok := exts[name]
	if !ok {
		return nil, errors.Newf("could not open extension control file %q", name+".control")
	}
	return ext, nil
}

// Extensions returns every installed extension, keyed by name.
func (r *Registry) Extensions() (map[string]*Files, error) {
	r.extMu.Lock()
	defer r.extMu.Unlock()

	exts, err := r.catalog()
	if err != nil {
		return nil, err
	}
	return maps.Clone(exts), nil
}

// Library returns the loaded library of the named extension.
func (r *Registry) Library(name string) (*pgext.Library, error) {
	r.libMu.Lock()
	defer r.libMu.Unlock()
	return r.library(name)
}

func (r *Registry) library(name string) (*pgext.Library, error) {
	if lib, ok := r.libs[name]; ok {
		return lib, nil
	}
	ext, err := r.Extension(name)
	if err != nil {
		return nil, err
	}
	lib, err := ext.LoadLibrary()
	if err != nil {
		return nil, err
	}
	r.libs[name] = lib
	return lib, nil
}

// Function resolves funcName in the library identifier refers to. The
// identifier must have been created on this platform, for the version of the
// extension that is installed.
func (r *Registry) Function(identifier LibraryIdentifier, funcName string) (*pgext.Function, error) {
	if err := identifier.Validate(); err != nil {
		return nil, err
	}
	extName := identifier.ExtensionName()
	if identifier.Platform() != Platform {
		return nil, errors.Newf("function %q was initialized through %q on a different platform, which is not supported",
			funcName, extName)
	}

	r.libMu.Lock()
	defer r.libMu.Unlock()

	lib, err := r.library(extName)
	if err != nil {
		return nil, err
	}
	ext, err := r.Extension(extName)
	if err != nil {
		return nil, err
	}
	if installed := ext.Control.DefaultVersion; installed != identifier.Version() {
		return nil, errors.Newf("function %q was initialized through %q v%s, the current installation only supports v%s",
			funcName, extName, identifier.Version(), installed)
	}
	fn, ok := lib.Function(funcName)
	if !ok {
		return nil, errors.Newf("extension %q does not declare the function %q", extName, funcName)
	}
	return fn, nil
}

// FindInvalidIdentifiers returns the identifiers that cannot be used with
// this installation. An empty result means all of them are usable.
func (r *Registry) FindInvalidIdentifiers(identifiers ...LibraryIdentifier) []InvalidIdentifier {
	r.extMu.Lock()
	defer r.extMu.Unlock()

	exts, err := r.catalog()
	var invalid []InvalidIdentifier
	for _, id := range identifiers {
		reason, ok := r.check(id, exts, err)
		if !ok {
			invalid = append(invalid, InvalidIdentifier{Identifier: id, Reason: reason})
		}
	}
	return invalid
}

func (r *Registry) check(id LibraryIdentifier, exts map[string]*Files, loadErr error) (InvalidReason, bool) {
	if id.Validate() != nil {
		return MalformedIdentifier, false
	}
	if id.Platform() != Platform {
		return MismatchedPlatform, false
	}
	if loadErr != nil {
		return MissingLibrary, false
	}
	ext, ok := exts[id.ExtensionName()]
	if !ok || ext.LibraryPath == "" {
		return MissingLibrary, false
	}
	if ext.Control.DefaultVersion != id.Version() {
		return InvalidVersion, false
	}
	return 0, true
}

// Close unloads every library the registry opened.
func (r *Registry) Close() error {
	r.libMu.Lock()
	defer r.libMu.Unlock()

	var errs error
	for name, lib := range r.libs {
		if err := lib.Close(); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "closing %q", name))
		}
		delete(r.libs, name)
	}
	return errs
}
