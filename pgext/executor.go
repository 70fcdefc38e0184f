package pgext

import (
	"context"
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/pgext/pgext-go/abi"
	"github.com/pgext/pgext-go/internal"
)

var (
	// ErrCallTimeout is returned when a call outlives its context. The native
	// call cannot be interrupted and keeps running in the background.
	ErrCallTimeout = errors.New("extension call timed out")
	// ErrExecutorBusy is returned while an abandoned call is still running.
	ErrExecutorBusy = errors.New("executor is busy with an abandoned call")
	// ErrClosed is returned by calls on a closed Callable or Executor.
	ErrClosed = errors.New("callable is closed")
	// ErrSetReturning is returned when binding a set-returning function.
	ErrSetReturning = errors.New("set-returning functions are not supported")
)

type (
	// ReportedError is a report at level ERROR or above made by the
	// extension during a call.
	ReportedError = internal.ReportedError
	// Level is an extension error reporting level.
	Level = internal.Level
	// Diagnostic is one message reported by an extension.
	Diagnostic = internal.Diagnostic
	// DiagnosticSink receives the messages reported by extensions.
	DiagnosticSink = internal.DiagnosticSink
	// Recorder is a DiagnosticSink that keeps everything it receives.
	Recorder = internal.Recorder
)

// Reporting levels, for comparing against Diagnostic.Level.
const (
	LevelDebug1  = internal.Debug1
	LevelLog     = internal.Log
	LevelInfo    = internal.Info
	LevelNotice  = internal.Notice
	LevelWarning = internal.Warning
	LevelError   = internal.Error
	LevelFatal   = internal.Fatal
	LevelPanic   = internal.Panic
)

// Option configures an Executor.
type Option func(*Executor)

// WithSink sends extension messages to sink instead of the logger.
func WithSink(sink DiagnosticSink) Option {
	return func(e *Executor) {
		e.sink = sink
	}
}

// WithLogger sets the logger used for the executor's own messages and, unless
// WithSink is given, for extension messages.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Executor) {
		e.log = logger
	}
}

// WithCollation sets the collation OID passed in every call frame.
func WithCollation(collation uint32) Option {
	return func(e *Executor) {
		e.collation = collation
	}
}

// Executor is one execution context. It owns the error reporting state bound
// around every call it makes, so calls on one Executor are serialized by the
// caller; use one Executor per goroutine for parallel calls.
type Executor struct {
	state     *internal.ErrorState
	alloc     abi.Allocator
	sink      DiagnosticSink
	log       logrus.FieldLogger
	collation uint32

	busy atomic.Bool
}

// NewExecutor creates an execution context.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		alloc: internal.CAllocator{},
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sink == nil {
		e.sink = internal.LogSink{Logger: e.log}
	}
	e.state = internal.NewErrorState(e.sink)
	return e
}

// Close releases the executor's error reporting state.
func (e *Executor) Close() error {
	if e.busy.Load() {
		return ErrExecutorBusy
	}
	if e.state != nil {
		e.state.Close()
		e.state = nil
	}
	return nil
}

// Bind prepares fn for calls with the given signature. The returned Callable
// keeps one FmgrInfo for its whole life, so whatever the function caches in
// fn_extra survives from one call to the next.
func (e *Executor) Bind(fn *Function, sig Signature, fnOid uint32) (*Callable, error) {
	if e.state == nil {
		return nil, ErrClosed
	}
	if sig.RetSet {
		return nil, errors.Wrapf(ErrSetReturning, "function %q", fn.Name)
	}
	if len(sig.Args) > abi.MaxArgs {
		return nil, errors.Wrapf(abi.ErrArgumentCount, "function %q declares %d arguments", fn.Name, len(sig.Args))
	}
	info, err := abi.NewFmgrInfo(e.alloc, fn.Addr, fnOid, int16(len(sig.Args)), sig.Strict, sig.RetSet)
	if err != nil {
		return nil, err
	}
	return &Callable{
		exec: e,
		fn:   fn,
		sig:  sig,
		info: info,
		log:  e.log.WithField("function", fn.Name),
	}, nil
}

// Callable is a function bound to an Executor.
type Callable struct {
	exec *Executor
	fn   *Function
	sig  Signature
	info *abi.FmgrInfo
	log  logrus.FieldLogger
}

// Function returns the bound function.
func (c *Callable) Function() *Function {
	return c.fn
}

// Signature returns the signature the function was bound with.
func (c *Callable) Signature() Signature {
	return c.sig
}

type callResult struct {
	value abi.Value
	err   error
}

// Call invokes the function with args, which must match the signature's
// argument kinds (nulls match any kind). A strict function called with a null
// argument returns null without running. If the extension reports at level
// ERROR or above, the call returns a *ReportedError; the function has run to
// completion by then and its result is discarded.
//
// When ctx has a deadline the call runs on a dedicated OS thread and Call
// gives up at the deadline with ErrCallTimeout. The executor then rejects
// calls with ErrExecutorBusy until the abandoned call returns.
func (c *Callable) Call(ctx context.Context, args ...abi.Value) (abi.Value, error) {
	if err := ctx.Err(); err != nil {
		return abi.Value{}, err
	}
	if c.info == nil || c.exec.state == nil {
		return abi.Value{}, ErrClosed
	}
	if len(args) != len(c.sig.Args) {
		return abi.Value{}, errors.Wrapf(abi.ErrArgumentCount, "function %q takes %d arguments, got %d",
			c.fn.Name, len(c.sig.Args), len(args))
	}
	anyNull := false
	for i, arg := range args {
		if arg.IsNull() {
			anyNull = true
			continue
		}
		if arg.Kind() != c.sig.Args[i] {
			return abi.Value{}, errors.Wrapf(abi.ErrKindMismatch, "argument %d of %q: want %s, got %s",
				i+1, c.fn.Name, c.sig.Args[i], arg.Kind())
		}
	}
	if c.sig.Strict && anyNull {
		return abi.Null(), nil
	}
	if c.exec.busy.Load() {
		return abi.Value{}, ErrExecutorBusy
	}

	if _, ok := ctx.Deadline(); !ok {
		return c.invoke(args)
	}

	c.exec.busy.Store(true)
	done := make(chan callResult, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		v, err := c.invoke(args)
		c.exec.busy.Store(false)
		done <- callResult{value: v, err: err}
	}()
	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		c.log.WithError(ctx.Err()).Warn("abandoning extension call")
		return abi.Value{}, errors.Wrapf(ErrCallTimeout, "function %q: %v", c.fn.Name, ctx.Err())
	}
}

func (c *Callable) invoke(args []abi.Value) (abi.Value, error) {
	arena := abi.NewArena(c.exec.alloc)
	defer arena.Reset()

	frame, err := abi.NewCallFrame(arena, c.info, len(args))
	if err != nil {
		return abi.Value{}, err
	}
	for i, arg := range args {
		if err := frame.SetValue(arena, i, arg); err != nil {
			return abi.Value{}, errors.Wrapf(err, "function %q", c.fn.Name)
		}
	}
	frame.SetCollation(c.exec.collation)

	state := c.exec.state
	state.Reset()
	d := internal.Invoke(state, frame)
	if err := state.Err(); err != nil {
		return abi.Value{}, errors.Wrapf(err, "function %q", c.fn.Name)
	}
	if frame.ResultIsNull() {
		return abi.Null(), nil
	}
	v, err := abi.FromDatum(c.sig.Result, abi.NullableDatum{Value: d})
	if err != nil {
		return abi.Value{}, errors.Wrapf(err, "decoding result of %q", c.fn.Name)
	}
	return v, nil
}

// Close releases the FmgrInfo. Whatever the function stored in fn_extra
// belongs to the extension and is not freed.
func (c *Callable) Close() error {
	if c.exec.busy.Load() {
		return ErrExecutorBusy
	}
	if c.info != nil {
		c.exec.alloc.Free(unsafe.Pointer(c.info))
		c.info = nil
	}
	return nil
}
