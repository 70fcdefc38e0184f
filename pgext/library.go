// Package pgext loads PostgreSQL extension libraries and calls their
// version-1 functions the way the host does: one FmgrInfo per bound function,
// a FunctionCallInfoBaseData frame per call, and an error reporting state
// bound for the duration of every call.
package pgext

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/pgext/pgext-go/internal"
)

// APIVersion is the only calling convention version the host supports.
const APIVersion = 1

// ErrAPIVersion is returned for functions that do not declare version 1.
var ErrAPIVersion = errors.New("unsupported function API version")

// Library is a loaded extension library together with the functions looked
// up from it.
type Library struct {
	Path      string
	Functions []*Function

	syms   internal.SymbolTable
	byName map[string]*Function
}

// Function is one exported version-1 function of a Library.
type Function struct {
	Name       string
	Addr       uintptr
	APIVersion int

	// Signature is the declared SQL signature, when one is known.
	Signature *Signature

	lib *Library
}

// Library returns the library the function was found in.
func (f *Function) Library() *Library {
	return f.lib
}

// LoadLibrary opens the shared object at path and looks up each of
// funcNames. Every function must come with a pg_finfo_<name> record
// declaring API version 1.
func LoadLibrary(path string, funcNames []string) (*Library, error) {
	so, err := internal.OpenSharedObject(path)
	if err != nil {
		return nil, err
	}
	lib, err := newLibrary(so, funcNames)
	if err != nil {
		_ = so.Close()
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"path":      path,
		"functions": len(lib.Functions),
	}).Debug("loaded extension library")
	return lib, nil
}

// OpenSelfTestLibrary returns the built-in library of test functions. It
// behaves like a loaded shared object and needs no PostgreSQL installation.
func OpenSelfTestLibrary() (*Library, error) {
	return newLibrary(internal.SelfTestLibrary{}, internal.SelfTestFunctions())
}

func newLibrary(syms internal.SymbolTable, funcNames []string) (*Library, error) {
	lib := &Library{
		Path:   syms.Path(),
		syms:   syms,
		byName: make(map[string]*Function, len(funcNames)),
	}
	for _, name := range funcNames {
		if _, dup := lib.byName[name]; dup {
			continue
		}
		fn, err := lib.lookup(name)
		if err != nil {
			return nil, err
		}
		lib.Functions = append(lib.Functions, fn)
		lib.byName[name] = fn
	}
	return lib, nil
}

func (l *Library) lookup(name string) (*Function, error) {
	finfo, err := l.syms.Symbol("pg_finfo_" + name)
	if err != nil {
		return nil, errors.Wrapf(err, "function %q has no info function", name)
	}
	version := internal.FinfoAPIVersion(finfo)
	if version != APIVersion {
		return nil, errors.Wrapf(ErrAPIVersion, "function %q declares version %d", name, version)
	}
	addr, err := l.syms.Symbol(name)
	if err != nil {
		return nil, err
	}
	return &Function{
		Name:       name,
		Addr:       uintptr(addr),
		APIVersion: version,
		lib:        l,
	}, nil
}

// Function returns the named function, if it was looked up at load time.
func (l *Library) Function(name string) (*Function, bool) {
	fn, ok := l.byName[name]
	return fn, ok
}

// Close unloads the library. Callables bound to its functions must be closed
// first.
func (l *Library) Close() error {
	if l.syms == nil {
		return nil
	}
	err := l.syms.Close()
	l.syms = nil
	return err
}

// String renders the library and its functions as a tree.
func (l *Library) String() string {
	root := &node{label: l.Path}
	for _, fn := range l.Functions {
		n := &node{label: fmt.Sprintf("%s: v%d", fn.Name, fn.APIVersion)}
		if fn.Signature != nil {
			n.label += " " + fn.Signature.String()
			for i, k := range fn.Signature.Args {
				n.children = append(n.children, &node{label: fmt.Sprintf("$%d: %s", i+1, k)})
			}
		}
		root.children = append(root.children, n)
	}
	var sb strings.Builder
	sb.WriteString(root.label)
	sb.WriteByte('\n')
	for i, child := range root.children {
		child.print(&sb, 0, 0, i == len(root.children)-1)
	}
	return sb.String()
}
