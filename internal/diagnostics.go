package internal

/*
#include <stdint.h>
*/
import "C"
import (
	"runtime/cgo"
	"sync"

	"github.com/sirupsen/logrus"
)

// Diagnostic is one finished error reporting session that carried a message.
type Diagnostic struct {
	Level   Level
	Domain  string
	Message string
}

// DiagnosticSink receives every message emitted at session finish. It is
// called on the thread running the extension, before the call returns.
type DiagnosticSink interface {
	Emit(d Diagnostic)
}

// LogSink writes diagnostics through logrus.
type LogSink struct {
	Logger logrus.FieldLogger
}

// Emit implements DiagnosticSink.
func (s LogSink) Emit(d Diagnostic) {
	logger := s.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	entry := logger.WithFields(logrus.Fields{
		"elevel": d.Level.String(),
		"domain": d.Domain,
	})
	switch {
	case d.Level <= Debug1:
		entry.Debug(d.Message)
	case d.Level < Warning:
		entry.Info(d.Message)
	case d.Level < Error:
		entry.Warn(d.Message)
	default:
		entry.Error(d.Message)
	}
}

// Recorder keeps every diagnostic it receives.
type Recorder struct {
	mu    sync.Mutex
	diags []Diagnostic
}

// Emit implements DiagnosticSink.
func (r *Recorder) Emit(d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diags = append(r.diags, d)
}

// Diagnostics returns a copy of everything recorded so far.
func (r *Recorder) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Diagnostic(nil), r.diags...)
}

// Tee forwards each diagnostic to every sink in order.
type Tee []DiagnosticSink

// Emit implements DiagnosticSink.
func (t Tee) Emit(d Diagnostic) {
	for _, s := range t {
		s.Emit(d)
	}
}

// Go callback called from errfinish in elog.c. Panics raised by the sink are
// recovered and logged.

//export pgextEmitDiagnostic
func pgextEmitDiagnostic(sink C.uintptr_t, level C.int, domain *C.char, message *C.char) {
	handle := cgo.Handle(sink)
	s, ok := handle.Value().(DiagnosticSink)
	if !ok {
		return
	}
	d := Diagnostic{
		Level:   Level(level),
		Domain:  C.GoString(domain),
		Message: C.GoString(message),
	}
	// A panic must not unwind through C: the caller still has to restore the
	// thread's bound state.
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"elevel": d.Level.String(),
				"domain": d.Domain,
				"panic":  r,
			}).Errorf("diagnostic sink panicked on %q", d.Message)
		}
	}()
	s.Emit(d)
}
