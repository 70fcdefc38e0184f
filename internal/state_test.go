package internal

import (
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func newRecordedState(t *testing.T) (*ErrorState, *Recorder) {
	t.Helper()
	rec := &Recorder{}
	state := NewErrorState(rec)
	t.Cleanup(state.Close)
	return state, rec
}

func TestSessionEmitsStagedMessage(t *testing.T) {
	state, rec := newRecordedState(t)

	require.True(t, state.Start(Warning, "myext"))
	require.True(t, state.Open())
	state.Message("disk is almost full")
	msg, ok := state.Staged()
	require.True(t, ok)
	require.Equal(t, "disk is almost full", msg)

	require.Equal(t, 0, state.Finish())
	require.False(t, state.Open())
	require.Equal(t, []Diagnostic{{Level: Warning, Domain: "myext", Message: "disk is almost full"}}, rec.Diagnostics())

	last, ok := state.Last()
	require.True(t, ok)
	require.Equal(t, "disk is almost full", last.Message)
	require.Equal(t, 1, state.Reports())
}

func TestFinishWithoutMessageEmitsNothing(t *testing.T) {
	state, rec := newRecordedState(t)

	require.True(t, state.Start(Notice, ""))
	require.Equal(t, 0, state.Finish())
	require.Empty(t, rec.Diagnostics())
	_, ok := state.Last()
	require.False(t, ok)

	// Finishing with no session at all is equally quiet.
	require.Equal(t, 0, state.Finish())
	require.Empty(t, rec.Diagnostics())
}

func TestLaterMessageOverwritesEarlier(t *testing.T) {
	state, rec := newRecordedState(t)

	state.Start(Info, "")
	state.Message("first")
	state.MessageInternal("second")
	state.Finish()

	diags := rec.Diagnostics()
	require.Len(t, diags, 1)
	require.Equal(t, "second", diags[0].Message)
}

func TestRestartDiscardsStagedMessage(t *testing.T) {
	state, rec := newRecordedState(t)

	state.Start(Warning, "")
	state.Message("never finished")
	state.Start(Notice, "")
	_, ok := state.Staged()
	require.False(t, ok)
	state.Finish()

	require.Empty(t, rec.Diagnostics())
}

func TestEmptyMessageIsEmitted(t *testing.T) {
	state, rec := newRecordedState(t)

	state.Start(Log, "")
	state.Message("")
	state.Finish()

	require.Equal(t, []Diagnostic{{Level: Log}}, rec.Diagnostics())
}

func TestLongMessageTruncated(t *testing.T) {
	state, rec := newRecordedState(t)

	msg := strings.Repeat("abcdefghij", 200)
	state.Start(Warning, "")
	state.Message(msg)
	state.Finish()

	diags := rec.Diagnostics()
	require.Len(t, diags, 1)
	got := diags[0].Message
	require.Len(t, got, MaxMessageLen)
	require.True(t, strings.HasPrefix(msg, got))
	require.Equal(t, msg[:MaxMessageLen], got)
}

func TestErrorLevelLatched(t *testing.T) {
	state, rec := newRecordedState(t)

	state.Start(Warning, "")
	state.Message("only a warning")
	state.Finish()
	require.NoError(t, state.Err())

	state.Start(Error, "myext")
	state.Message("division by zero")
	require.Equal(t, 0, state.Finish(), "errfinish returns even at ERROR")

	state.Start(Fatal, "myext")
	state.Message("later failure")
	state.Finish()

	err := state.Err()
	require.Error(t, err)
	var extErr *ReportedError
	require.ErrorAs(t, err, &extErr)
	require.Equal(t, Error, extErr.Level)
	require.Equal(t, "myext", extErr.Domain)
	require.Equal(t, "division by zero", extErr.Message)
	require.Equal(t, "ERROR: division by zero", err.Error())
	require.Len(t, rec.Diagnostics(), 3)

	state.Reset()
	require.NoError(t, state.Err())
	require.Equal(t, 0, state.Reports())
}

func TestErrorWithoutMessage(t *testing.T) {
	state, rec := newRecordedState(t)

	state.Start(Error, "")
	state.Finish()

	require.Empty(t, rec.Diagnostics())
	require.EqualError(t, state.Err(), "ERROR: error reported without a message")
}

func TestStatesAreIndependent(t *testing.T) {
	a, recA := newRecordedState(t)
	b, recB := newRecordedState(t)

	a.Start(Warning, "a")
	a.Message("from a")
	b.Start(Notice, "b")
	b.Finish()
	a.Finish()

	require.Empty(t, recB.Diagnostics())
	require.Equal(t, []Diagnostic{{Level: Warning, Domain: "a", Message: "from a"}}, recA.Diagnostics())
}

func TestConcurrentStates(t *testing.T) {
	const workers = 8
	var wg sync.WaitGroup
	recs := make([]*Recorder, workers)
	for i := 0; i < workers; i++ {
		recs[i] = &Recorder{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			state := NewErrorState(recs[i])
			defer state.Close()
			for j := 0; j < 100; j++ {
				state.Start(Notice, "")
				state.Message(strings.Repeat(string(rune('a'+i)), j+1))
				state.Finish()
			}
		}(i)
	}
	wg.Wait()

	for i, rec := range recs {
		diags := rec.Diagnostics()
		require.Len(t, diags, 100)
		for j, d := range diags {
			require.Equal(t, strings.Repeat(string(rune('a'+i)), j+1), d.Message)
		}
	}
}

func TestLogSink(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	state := NewErrorState(LogSink{Logger: logger})
	defer state.Close()

	cases := []struct {
		level Level
		want  logrus.Level
	}{
		{Debug2, logrus.DebugLevel},
		{Notice, logrus.InfoLevel},
		{Warning, logrus.WarnLevel},
		{Error, logrus.ErrorLevel},
	}
	for _, c := range cases {
		state.Start(c.level, "myext")
		state.Message("hello")
		state.Finish()

		entry := hook.LastEntry()
		require.NotNil(t, entry)
		require.Equal(t, c.want, entry.Level)
		require.Equal(t, "hello", entry.Message)
		require.Equal(t, "myext", entry.Data["domain"])
		require.Equal(t, c.level.String(), entry.Data["elevel"])
	}
}

func TestTeeAndSetSink(t *testing.T) {
	state, first := newRecordedState(t)
	second := &Recorder{}

	state.SetSink(Tee{first, second})
	state.Start(Info, "")
	state.Message("both")
	state.Finish()
	require.Len(t, first.Diagnostics(), 1)
	require.Len(t, second.Diagnostics(), 1)

	state.SetSink(second)
	state.Start(Info, "")
	state.Message("second only")
	state.Finish()
	require.Len(t, first.Diagnostics(), 1)
	require.Len(t, second.Diagnostics(), 2)
}

func TestLevelNames(t *testing.T) {
	require.Equal(t, "DEBUG5", Debug5.String())
	require.Equal(t, "DEBUG1", Debug1.String())
	require.Equal(t, "LOG", LogServerOnly.String())
	require.Equal(t, "WARNING", WarningClientOnly.String())
	require.True(t, Error.IsError())
	require.True(t, Panic.IsError())
	require.False(t, WarningClientOnly.IsError())
	require.Equal(t, "LEVEL1", Level(1).String())
	require.Equal(t, "LEVEL24", (Panic + 1).String())

	for _, name := range []string{"DEBUG3", "NOTICE", "ERROR", "PANIC"} {
		l, err := ParseLevel(name)
		require.NoError(t, err)
		require.Equal(t, name, l.String())
	}
	_, err := ParseLevel("CHATTY")
	require.Error(t, err)
}

type panickingSink struct{}

func (panickingSink) Emit(Diagnostic) { panic("sink failure") }

func TestPanickingSinkIsRecovered(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	state := NewErrorState(panickingSink{})
	t.Cleanup(state.Close)

	require.NotPanics(t, func() {
		state.Start(Warning, "myext")
		state.Message("lost")
		state.Finish()
	})
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, logrus.ErrorLevel, entry.Level)
	require.Equal(t, "sink failure", entry.Data["panic"])
	require.Contains(t, entry.Message, `"lost"`)

	// The state is still bound correctly and keeps working.
	rec := &Recorder{}
	state.SetSink(rec)
	state.Start(Notice, "myext")
	state.Message("kept")
	state.Finish()
	require.Equal(t, []Diagnostic{{Level: Notice, Domain: "myext", Message: "kept"}}, rec.Diagnostics())
}
