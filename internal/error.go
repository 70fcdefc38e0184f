package internal

/*
#include "pg_abi.h"
*/
import "C"
import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Level is an error reporting level, numbered as in the host's elog.h
type Level int

const (
	Debug5            Level = C.PGEXT_DEBUG5
	Debug4            Level = C.PGEXT_DEBUG4
	Debug3            Level = C.PGEXT_DEBUG3
	Debug2            Level = C.PGEXT_DEBUG2
	Debug1            Level = C.PGEXT_DEBUG1
	Log               Level = C.PGEXT_LOG
	LogServerOnly     Level = C.PGEXT_LOG_SERVER_ONLY
	Info              Level = C.PGEXT_INFO
	Notice            Level = C.PGEXT_NOTICE
	Warning           Level = C.PGEXT_WARNING
	WarningClientOnly Level = C.PGEXT_WARNING_CLIENT_ONLY
	Error             Level = C.PGEXT_ERROR
	Fatal             Level = C.PGEXT_FATAL
	Panic             Level = C.PGEXT_PANIC
)

// MaxMessageLen is the longest message the shim keeps; longer ones are cut.
const MaxMessageLen = C.PGEXT_ERROR_MAX - 1

func (l Level) String() string {
	switch {
	case l < Debug5 || l > Panic:
		return fmt.Sprintf("LEVEL%d", int(l))
	case l <= Debug1:
		return fmt.Sprintf("DEBUG%d", int(Debug1-l)+1)
	case l == Log, l == LogServerOnly:
		return "LOG"
	case l == Info:
		return "INFO"
	case l == Notice:
		return "NOTICE"
	case l == Warning, l == WarningClientOnly:
		return "WARNING"
	case l == Error:
		return "ERROR"
	case l == Fatal:
		return "FATAL"
	default:
		return "PANIC"
	}
}

// IsError reports whether the host would have aborted the current operation
// at this level.
func (l Level) IsError() bool {
	return l >= Error
}

// ParseLevel maps a level name back to a Level.
func ParseLevel(name string) (Level, error) {
	for l := Debug5; l <= Panic; l++ {
		if l.String() == name {
			return l, nil
		}
	}
	return 0, errors.Newf("unknown error level %q", name)
}

// ReportedError is a report at level ERROR or above made by extension code. The shim
// returns normally from such reports, so the extension kept running after it;
// the host receives it once the call is over.
type ReportedError struct {
	Level   Level
	Domain  string
	Message string
}

func (e *ReportedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Level, e.Message)
	}
	return fmt.Sprintf("%s: error reported without a message", e.Level)
}
