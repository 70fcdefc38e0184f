//go:build !linux && !darwin

package internal

import (
	"unsafe"

	"github.com/cockroachdb/errors"
)

// SharedObject is a dynamically loaded extension library. Loading is only
// implemented for Linux and macOS.
type SharedObject struct {
	path string
}

func OpenSharedObject(path string) (*SharedObject, error) {
	return nil, errors.Newf("loading %q: shared objects are not supported on this platform", path)
}

func (so *SharedObject) Path() string {
	return so.path
}

func (so *SharedObject) Symbol(name string) (unsafe.Pointer, error) {
	return nil, errors.Newf("resolving %q: shared objects are not supported on this platform", name)
}

func (so *SharedObject) Close() error {
	return nil
}

func HostSymbol(name string) (unsafe.Pointer, error) {
	return nil, errors.Newf("resolving %q: dynamic symbols are not supported on this platform", name)
}
