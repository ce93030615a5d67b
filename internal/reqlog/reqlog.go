// Package reqlog records per-request diagnostics without holding up the
// response. Entries are queued by Record and written out by Run.
package reqlog

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/fatih/color"
	"github.com/shigetaa/node-js5http/internal/headers"
	"github.com/shigetaa/node-js5http/internal/request"
)

const DefaultQueueSize = 256

type entry struct {
	method  string
	target  string
	headers headers.Headers
}

type Logger struct {
	out     io.Writer
	entries chan entry
	dropped atomic.Int64
	method  *color.Color

	// reported is only touched by the Run goroutine.
	reported int64
}

func New(out io.Writer, size int) *Logger {
	if size < 1 {
		size = DefaultQueueSize
	}
	return &Logger{
		out:     out,
		entries: make(chan entry, size),
		method:  color.New(color.FgCyan, color.Bold),
	}
}

// Record queues method, target and a copy of the headers of req. It never
// blocks: when the queue is full the entry is dropped.
func (l *Logger) Record(req *request.Request) {
	e := entry{
		method:  req.RequestLine.Method,
		target:  req.RequestLine.RequestTarget,
		headers: req.Headers.Clone(),
	}
	select {
	case l.entries <- e:
	default:
		l.dropped.Add(1)
	}
}

// Dropped returns the number of entries discarded because the queue was full.
func (l *Logger) Dropped() int64 {
	return l.dropped.Load()
}

// Run writes queued entries until ctx is done, then flushes whatever is
// still queued and returns. Entries lost to a full queue are reported as a
// "dropped N request log entries" line.
func (l *Logger) Run(ctx context.Context) error {
	for {
		select {
		case e := <-l.entries:
			if err := l.write(e); err != nil {
				return fmt.Errorf("writing request log: %w", err)
			}
		case <-ctx.Done():
			return l.drain()
		}
	}
}

func (l *Logger) drain() error {
	for {
		select {
		case e := <-l.entries:
			if err := l.write(e); err != nil {
				return fmt.Errorf("writing request log: %w", err)
			}
		default:
			if err := l.reportDropped(); err != nil {
				return fmt.Errorf("writing request log: %w", err)
			}
			return nil
		}
	}
}

func (l *Logger) reportDropped() error {
	total := l.dropped.Load()
	n := total - l.reported
	if n == 0 {
		return nil
	}
	l.reported = total
	_, err := fmt.Fprintf(l.out, "dropped %d request log entries\n", n)
	return err
}

func (l *Logger) write(e entry) error {
	if err := l.reportDropped(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(l.out, "%s\n%s\n", l.method.Sprint(e.method), e.target); err != nil {
		return err
	}
	for _, k := range e.headers.Keys() {
		if _, err := fmt.Fprintf(l.out, "  %s: %s\n", k, e.headers[k]); err != nil {
			return err
		}
	}
	return nil
}
