package internal

/*
#include <stdlib.h>
#include "pg_abi.h"
*/
import "C"
import (
	"runtime/cgo"
	"unsafe"
)

// ErrorState is the error reporting context of one execution context. The C
// side only sees it while a call made through this package is running on the
// current thread, so two ErrorStates never share a staged message. An
// ErrorState is not safe for concurrent use.
type ErrorState struct {
	state *C.PgextErrorState
	sink  cgo.Handle
}

// NewErrorState allocates a state whose finished messages go to sink. A nil
// sink sends them to stderr.
func NewErrorState(sink DiagnosticSink) *ErrorState {
	s := &ErrorState{
		state: (*C.PgextErrorState)(C.calloc(1, C.sizeof_PgextErrorState)),
	}
	s.SetSink(sink)
	return s
}

// SetSink replaces the diagnostic sink.
func (s *ErrorState) SetSink(sink DiagnosticSink) {
	if s.sink != 0 {
		s.sink.Delete()
		s.sink = 0
	}
	s.state.sink = 0
	if sink != nil {
		s.sink = cgo.NewHandle(sink)
		s.state.sink = C.uintptr_t(s.sink)
	}
}

// Start opens a session, discarding whatever a previous session staged.
func (s *ErrorState) Start(level Level, domain string) bool {
	cDomain := C.CString(domain)
	defer C.free(unsafe.Pointer(cDomain))
	return bool(C.pgext_session_start(s.state, C.int(level), cDomain))
}

// Message stages msg, replacing any message staged earlier in the session.
func (s *ErrorState) Message(msg string) {
	cMsg := C.CString(msg)
	defer C.free(unsafe.Pointer(cMsg))
	C.pgext_session_message(s.state, cMsg)
}

// MessageInternal is the internal-message variant of Message. The two behave
// identically since no level filtering is done.
func (s *ErrorState) MessageInternal(msg string) {
	cMsg := C.CString(msg)
	defer C.free(unsafe.Pointer(cMsg))
	C.pgext_session_message_internal(s.state, cMsg)
}

// Finish ends the session, emitting the staged message if there is one.
func (s *ErrorState) Finish() int {
	return int(C.pgext_session_finish(s.state))
}

// Open reports whether a session has been started but not finished.
func (s *ErrorState) Open() bool {
	return bool(s.state.open)
}

// Staged returns the message of the open session, if one was staged.
func (s *ErrorState) Staged() (string, bool) {
	if !bool(s.state.staged) {
		return "", false
	}
	return C.GoString(&s.state.message[0]), true
}

// Last returns the message of the most recently finished session. It is
// cleared when the next session starts.
func (s *ErrorState) Last() (Diagnostic, bool) {
	if !bool(s.state.has_message) {
		return Diagnostic{}, false
	}
	return Diagnostic{
		Level:   Level(s.state.level),
		Domain:  C.GoString(&s.state.domain[0]),
		Message: C.GoString(&s.state.message[0]),
	}, true
}

// Err returns the first report at ERROR or above since the last Reset, or nil.
func (s *ErrorState) Err() error {
	if !bool(s.state.has_error) {
		return nil
	}
	return &ReportedError{
		Level:   Level(s.state.error_level),
		Domain:  C.GoString(&s.state.error_domain[0]),
		Message: C.GoString(&s.state.error_message[0]),
	}
}

// Reports returns how many sessions finished with a message since the last
// Reset.
func (s *ErrorState) Reports() int {
	return int(s.state.reports)
}

// Reset clears everything except the sink.
func (s *ErrorState) Reset() {
	C.pgext_state_reset(s.state)
}

// Close releases the state. It must not be used afterwards.
func (s *ErrorState) Close() {
	if s.state != nil {
		s.SetSink(nil)
		C.free(unsafe.Pointer(s.state))
		s.state = nil
	}
}
