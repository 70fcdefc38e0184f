package pgext

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/pgext/pgext-go/abi"
)

func bindSelfTest(t *testing.T, exec *Executor, name string, sig Signature) *Callable {
	t.Helper()
	lib := openSelfTest(t)
	fn, ok := lib.Function(name)
	require.True(t, ok, name)
	c, err := exec.Bind(fn, sig, 0)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })
	return c
}

func newTestExecutor(t *testing.T) (*Executor, *Recorder) {
	t.Helper()
	rec := &Recorder{}
	exec := NewExecutor(WithSink(rec))
	t.Cleanup(func() { require.NoError(t, exec.Close()) })
	return exec, rec
}

var int4Pair = Signature{Args: []abi.Kind{abi.KindInt32, abi.KindInt32}, Result: abi.KindInt32, Strict: true}

func TestCallAddInt4(t *testing.T) {
	exec, _ := newTestExecutor(t)
	c := bindSelfTest(t, exec, "pgext_selftest_add_int4", int4Pair)

	v, err := c.Call(context.Background(), abi.Int32(19), abi.Int32(23))
	require.NoError(t, err)
	n, err := v.Int32()
	require.NoError(t, err)
	require.Equal(t, int32(42), n)
}

func TestCallStrictNullSkipsFunction(t *testing.T) {
	exec, _ := newTestExecutor(t)
	add := bindSelfTest(t, exec, "pgext_selftest_add_int4", int4Pair)

	v, err := add.Call(context.Background(), abi.Null(), abi.Int32(1))
	require.NoError(t, err)
	require.True(t, v.IsNull())
}

func TestCallKeepsExtraAcrossCalls(t *testing.T) {
	exec, _ := newTestExecutor(t)
	counter := bindSelfTest(t, exec, "pgext_selftest_call_counter", Signature{Result: abi.KindInt32})

	for want := int32(1); want <= 3; want++ {
		v, err := counter.Call(context.Background())
		require.NoError(t, err)
		require.Equal(t, abi.Int32(want), v)
	}
}

func TestCallNonStrictReceivesNull(t *testing.T) {
	exec, _ := newTestExecutor(t)
	c := bindSelfTest(t, exec, "pgext_selftest_coalesce_zero",
		Signature{Args: []abi.Kind{abi.KindInt32}, Result: abi.KindInt32})

	v, err := c.Call(context.Background(), abi.Null())
	require.NoError(t, err)
	require.Equal(t, abi.Int32(0), v)
}

func TestCallNullResult(t *testing.T) {
	exec, _ := newTestExecutor(t)
	c := bindSelfTest(t, exec, "pgext_selftest_null_if_negative",
		Signature{Args: []abi.Kind{abi.KindInt32}, Result: abi.KindInt32, Strict: true})

	v, err := c.Call(context.Background(), abi.Int32(-1))
	require.NoError(t, err)
	require.True(t, v.IsNull())

	v, err = c.Call(context.Background(), abi.Int32(5))
	require.NoError(t, err)
	require.Equal(t, abi.Int32(5), v)
}

func TestCallTextAndFloat8(t *testing.T) {
	exec, _ := newTestExecutor(t)
	length := bindSelfTest(t, exec, "pgext_selftest_text_length",
		Signature{Args: []abi.Kind{abi.KindText}, Result: abi.KindInt32, Strict: true})
	mul := bindSelfTest(t, exec, "pgext_selftest_float8_mul",
		Signature{Args: []abi.Kind{abi.KindFloat8, abi.KindFloat8}, Result: abi.KindFloat8, Strict: true})

	v, err := length.Call(context.Background(), abi.Text("geodesic"))
	require.NoError(t, err)
	require.Equal(t, abi.Int32(8), v)

	v, err = mul.Call(context.Background(), abi.Float8(2.5), abi.Float8(4))
	require.NoError(t, err)
	f, err := v.Float8()
	require.NoError(t, err)
	require.Equal(t, 10.0, f)
}

var reportSig = Signature{Args: []abi.Kind{abi.KindText, abi.KindInt32}, Result: abi.KindInt32, Strict: true}

func TestCallReportsDiagnostics(t *testing.T) {
	exec, rec := newTestExecutor(t)
	c := bindSelfTest(t, exec, "pgext_selftest_report", reportSig)

	v, err := c.Call(context.Background(), abi.Text("table is bloated"), abi.Int32(int32(LevelWarning)))
	require.NoError(t, err)
	require.Equal(t, abi.Int32(1), v)

	diags := rec.Diagnostics()
	require.Len(t, diags, 1)
	require.Equal(t, LevelWarning, diags[0].Level)
	require.Equal(t, "pgext-selftest", diags[0].Domain)
	require.Equal(t, "table is bloated", diags[0].Message)
}

func TestCallErrorReportBecomesError(t *testing.T) {
	exec, rec := newTestExecutor(t)
	c := bindSelfTest(t, exec, "pgext_selftest_report", reportSig)

	_, err := c.Call(context.Background(), abi.Text("could not open file"), abi.Int32(int32(LevelError)))
	var reported *ReportedError
	require.ErrorAs(t, err, &reported)
	require.Equal(t, "could not open file", reported.Message)
	require.True(t, reported.Level.IsError())
	require.Len(t, rec.Diagnostics(), 1)

	// The latched error does not leak into the next call.
	_, err = c.Call(context.Background(), abi.Text("fine"), abi.Int32(int32(LevelNotice)))
	require.NoError(t, err)
}

func TestCallArgumentChecks(t *testing.T) {
	exec, _ := newTestExecutor(t)
	c := bindSelfTest(t, exec, "pgext_selftest_add_int4", int4Pair)

	_, err := c.Call(context.Background(), abi.Int32(1))
	require.True(t, errors.Is(err, abi.ErrArgumentCount))

	_, err = c.Call(context.Background(), abi.Int32(1), abi.Text("2"))
	require.True(t, errors.Is(err, abi.ErrKindMismatch))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Call(ctx, abi.Int32(1), abi.Int32(2))
	require.ErrorIs(t, err, context.Canceled)
}

func TestCallWithDeadline(t *testing.T) {
	exec, _ := newTestExecutor(t)
	c := bindSelfTest(t, exec, "pgext_selftest_add_int4", int4Pair)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	v, err := c.Call(ctx, abi.Int32(2), abi.Int32(3))
	require.NoError(t, err)
	require.Equal(t, abi.Int32(5), v)
	require.False(t, exec.busy.Load())
}

var sleepSig = Signature{Args: []abi.Kind{abi.KindInt32}, Result: abi.KindInt32, Strict: true}

func TestCallTimeoutLeavesExecutorBusy(t *testing.T) {
	exec, _ := newTestExecutor(t)
	sleep := bindSelfTest(t, exec, "pgext_selftest_sleep", sleepSig)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := sleep.Call(ctx, abi.Int32(300))
	require.True(t, errors.Is(err, ErrCallTimeout), "%v", err)
	require.True(t, exec.busy.Load())

	// The abandoned call still owns the executor.
	_, err = sleep.Call(context.Background(), abi.Int32(0))
	require.True(t, errors.Is(err, ErrExecutorBusy), "%v", err)
	require.True(t, errors.Is(exec.Close(), ErrExecutorBusy))

	require.Eventually(t, func() bool { return !exec.busy.Load() }, 5*time.Second, 10*time.Millisecond)
	v, err := sleep.Call(context.Background(), abi.Int32(7))
	require.NoError(t, err)
	require.Equal(t, abi.Int32(7), v)
	require.False(t, exec.busy.Load())
}

func TestBindRejectsSetReturning(t *testing.T) {
	exec, _ := newTestExecutor(t)
	lib := openSelfTest(t)
	fn, _ := lib.Function("pgext_selftest_add_int4")

	_, err := exec.Bind(fn, Signature{Result: abi.KindInt32, RetSet: true}, 0)
	require.True(t, errors.Is(err, ErrSetReturning))
}

func TestClosedCallable(t *testing.T) {
	exec, _ := newTestExecutor(t)
	lib := openSelfTest(t)
	fn, _ := lib.Function("pgext_selftest_add_int4")
	c, err := exec.Bind(fn, int4Pair, 0)
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err = c.Call(context.Background(), abi.Int32(1), abi.Int32(2))
	require.True(t, errors.Is(err, ErrClosed))
}

func TestExecutorsAreIndependent(t *testing.T) {
	a, recA := newTestExecutor(t)
	b, recB := newTestExecutor(t)
	ca := bindSelfTest(t, a, "pgext_selftest_report", reportSig)
	cb := bindSelfTest(t, b, "pgext_selftest_report", reportSig)

	done := make(chan error, 2)
	go func() {
		for i := 0; i < 50; i++ {
			if _, err := ca.Call(context.Background(), abi.Text("a"), abi.Int32(int32(LevelNotice))); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()
	go func() {
		for i := 0; i < 50; i++ {
			if _, err := cb.Call(context.Background(), abi.Text("b"), abi.Int32(int32(LevelError))); err == nil {
				done <- errors.New("expected a reported error")
				return
			}
		}
		done <- nil
	}()
	require.NoError(t, <-done)
	require.NoError(t, <-done)

	for _, d := range recA.Diagnostics() {
		require.Equal(t, "a", d.Message)
	}
	for _, d := range recB.Diagnostics() {
		require.Equal(t, "b", d.Message)
	}
	require.Len(t, recA.Diagnostics(), 50)
	require.Len(t, recB.Diagnostics(), 50)
}
