package internal

/*
#include "pg_abi.h"
*/
import "C"
import (
	"sort"
	"strings"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// SelfTestPath is the name the built-in self test library reports as its path.
const SelfTestPath = "$builtin/pgext_selftest"

// SymbolTable resolves symbols of a loaded library.
type SymbolTable interface {
	Path() string
	Symbol(name string) (unsafe.Pointer, error)
	Close() error
}

var (
	_ SymbolTable = (*SharedObject)(nil)
	_ SymbolTable = SelfTestLibrary{}
)

var selfTestSymbols = map[string]unsafe.Pointer{
	"pgext_selftest_add_int4":                  unsafe.Pointer(C.pgext_selftest_add_int4),
	"pg_finfo_pgext_selftest_add_int4":         unsafe.Pointer(C.pg_finfo_pgext_selftest_add_int4),
	"pgext_selftest_text_length":               unsafe.Pointer(C.pgext_selftest_text_length),
	"pg_finfo_pgext_selftest_text_length":      unsafe.Pointer(C.pg_finfo_pgext_selftest_text_length),
	"pgext_selftest_report":                    unsafe.Pointer(C.pgext_selftest_report),
	"pg_finfo_pgext_selftest_report":           unsafe.Pointer(C.pg_finfo_pgext_selftest_report),
	"pgext_selftest_call_counter":              unsafe.Pointer(C.pgext_selftest_call_counter),
	"pg_finfo_pgext_selftest_call_counter":     unsafe.Pointer(C.pg_finfo_pgext_selftest_call_counter),
	"pgext_selftest_coalesce_zero":             unsafe.Pointer(C.pgext_selftest_coalesce_zero),
	"pg_finfo_pgext_selftest_coalesce_zero":    unsafe.Pointer(C.pg_finfo_pgext_selftest_coalesce_zero),
	"pgext_selftest_null_if_negative":          unsafe.Pointer(C.pgext_selftest_null_if_negative),
	"pg_finfo_pgext_selftest_null_if_negative": unsafe.Pointer(C.pg_finfo_pgext_selftest_null_if_negative),
	"pgext_selftest_float8_mul":                unsafe.Pointer(C.pgext_selftest_float8_mul),
	"pg_finfo_pgext_selftest_float8_mul":       unsafe.Pointer(C.pg_finfo_pgext_selftest_float8_mul),
	"pgext_selftest_sleep":                     unsafe.Pointer(C.pgext_selftest_sleep),
	"pg_finfo_pgext_selftest_sleep":            unsafe.Pointer(C.pg_finfo_pgext_selftest_sleep),
}

// SelfTestLibrary exposes the V1 functions compiled into this package as if
// they had been loaded from a shared object.
type SelfTestLibrary struct{}

func (SelfTestLibrary) Path() string { return SelfTestPath }

func (SelfTestLibrary) Symbol(name string) (unsafe.Pointer, error) {
	p, ok := selfTestSymbols[name]
	if !ok {
		return nil, errors.Newf("could not find function %q in file %q", name, SelfTestPath)
	}
	return p, nil
}

func (SelfTestLibrary) Close() error { return nil }

// SelfTestFunctions lists the callable functions of the self test library.
func SelfTestFunctions() []string {
	var names []string
	for name := range selfTestSymbols {
		if strings.HasPrefix(name, "pg_finfo_") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
