package internal

/*
#include "pg_abi.h"
*/
import "C"
import (
	"unsafe"

	"github.com/pgext/pgext-go/abi"
)

// Invoke calls the function whose address is stored in the frame's FmgrInfo,
// with state bound as the thread's current error state for the duration of
// the call. The frame must have been fully populated by the caller.
func Invoke(state *ErrorState, frame *abi.CallFrame) abi.Datum {
	fcinfo := (*C.FunctionCallInfoBaseData)(frame.Pointer())
	return abi.Datum(C.pgext_invoke(state.state, fcinfo))
}

// FinfoAPIVersion calls a pg_finfo_<name> function and returns the calling
// convention version it declares.
func FinfoAPIVersion(finfo unsafe.Pointer) int {
	return int(C.pgext_finfo_api_version(finfo))
}
