package internal

/*
#include "pg_abi.h"
*/
import "C"
import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/pgext/pgext-go/abi"
)

func init() {
	if err := VerifyLayout(); err != nil {
		panic(err)
	}
}

// CLayout returns the sizes and field offsets the C compiler chose for the
// shim's structures. Sizes are keyed "sizeof.<type>", offsets "<type>.<field>".
func CLayout() map[string]uintptr {
	n := int(C.pgext_layout_count())
	layout := make(map[string]uintptr, n)
	for i := 0; i < n; i++ {
		name := C.GoString(C.pgext_layout_name(C.size_t(i)))
		layout[name] = uintptr(C.pgext_layout_value(C.size_t(i)))
	}
	return layout
}

// VerifyLayout compares the C layout against the Go mirror in package abi.
func VerifyLayout() error {
	c := CLayout()
	var mismatches []string
	check := func(key string, goValue uintptr) {
		if cValue, ok := c[key]; !ok || cValue != goValue {
			mismatches = append(mismatches, key)
		}
	}
	for name, size := range abi.Sizes() {
		check("sizeof."+name, size)
	}
	for name, offset := range abi.Offsets() {
		check(name, offset)
	}
	if len(mismatches) > 0 {
		sort.Strings(mismatches)
		return errors.Newf("fmgr layout mismatch between Go and C: %s", strings.Join(mismatches, ", "))
	}
	return nil
}
