//go:build linux || darwin

package internal

/*
#cgo linux LDFLAGS: -ldl -rdynamic
#ifndef _GNU_SOURCE
#define _GNU_SOURCE
#endif
#include <dlfcn.h>
#include <stdlib.h>

static void *pgext_dlopen(const char *path)
{
	return dlopen(path, RTLD_NOW | RTLD_GLOBAL);
}

// Clear dlerror, call dlsym, and report the error (if any) alongside the symbol.
static void *pgext_dlsym(void *handle, const char *name, char **err)
{
	dlerror();
	void *p = dlsym(handle, name);
	char *e = dlerror();
	*err = e;
	return e != NULL ? NULL : p;
}

static void *pgext_dlsym_default(const char *name, char **err)
{
	return pgext_dlsym(RTLD_DEFAULT, name, err);
}

static const char *pgext_dlerror(void)
{
	return dlerror();
}
*/
import "C"
import (
	"unsafe"

	"github.com/cockroachdb/errors"
)

// SharedObject is a dynamically loaded extension library.
type SharedObject struct {
	handle unsafe.Pointer
	path   string
}

// dlerr returns the last dlerror as a Go string, or a fallback label.
func dlerr() string {
	errC := C.pgext_dlerror()
	if errC != nil {
		return C.GoString(errC)
	}
	return "unknown dlerror"
}

// OpenSharedObject loads the library at path. Symbols are bound immediately so
// references to host functions this process does not export fail here rather
// than in the middle of a call.
func OpenSharedObject(path string) (*SharedObject, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))
	h := C.pgext_dlopen(cPath)
	if h == nil {
		return nil, errors.Newf("could not load library %q: %s", path, dlerr())
	}
	return &SharedObject{handle: h, path: path}, nil
}

// Path returns the path the library was loaded from.
func (so *SharedObject) Path() string {
	return so.path
}

// Symbol resolves name in the library.
func (so *SharedObject) Symbol(name string) (unsafe.Pointer, error) {
	if so.handle == nil {
		return nil, errors.Newf("library %q is closed", so.path)
	}
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	var cErr *C.char
	p := C.pgext_dlsym(so.handle, cName, &cErr)
	if cErr != nil {
		return nil, errors.Newf("could not find function %q in file %q: %s", name, so.path, C.GoString(cErr))
	}
	return p, nil
}

// Close unloads the library.
func (so *SharedObject) Close() error {
	if so.handle == nil {
		return nil
	}
	if C.dlclose(so.handle) != 0 {
		return errors.Newf("could not unload library %q: %s", so.path, dlerr())
	}
	so.handle = nil
	return nil
}

// HostSymbol resolves name in the global scope of the running process, the
// way a library opened by OpenSharedObject resolves its undefined symbols.
func HostSymbol(name string) (unsafe.Pointer, error) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	var cErr *C.char
	p := C.pgext_dlsym_default(cName, &cErr)
	if cErr != nil {
		return nil, errors.Newf("host does not export %q: %s", name, C.GoString(cErr))
	}
	return p, nil
}
