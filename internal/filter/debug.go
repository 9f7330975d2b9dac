package filter

import (
	"io"
	"log"
	"sync"
)

// LogWriters routes the estimator's output. A nil writer silences its
// stream.
type LogWriters struct {
	Ops   io.Writer // failed cycles, invalid poses, run lifecycle
	Diag  io.Writer // reseeds, timestamp adjustments, recording failures
	Trace io.Writer // one line per cycle
}

type stream int

const (
	opsStream stream = iota
	diagStream
	traceStream
	numStreams
)

var (
	loggersMu sync.RWMutex
	loggers   [numStreams]*log.Logger
)

// SetLogWriters replaces every stream. Callers that only want one stream
// leave the others nil.
func SetLogWriters(w LogWriters) {
	next := [numStreams]*log.Logger{
		opsStream:   streamLogger(w.Ops),
		diagStream:  streamLogger(w.Diag),
		traceStream: streamLogger(w.Trace),
	}
	loggersMu.Lock()
	loggers = next
	loggersMu.Unlock()
}

func streamLogger(w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, "[posefilter] ", log.LstdFlags|log.Lmicroseconds)
}

func logf(s stream, format string, args ...interface{}) {
	loggersMu.RLock()
	l := loggers[s]
	loggersMu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}

// Opsf writes to the ops stream.
func Opsf(format string, args ...interface{}) { logf(opsStream, format, args...) }

// Diagf writes to the diag stream.
func Diagf(format string, args ...interface{}) { logf(diagStream, format, args...) }

// Tracef writes to the trace stream. It runs every cycle, so keep calls
// cheap.
func Tracef(format string, args ...interface{}) { logf(traceStream, format, args...) }
