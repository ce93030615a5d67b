package reqlog

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/shigetaa/node-js5http/internal/headers"
	"github.com/shigetaa/node-js5http/internal/request"
)

func init() {
	color.NoColor = true
}

func newRequest(method, target string, h headers.Headers) *request.Request {
	return &request.Request{
		RequestLine: request.RequestLine{Method: method, RequestTarget: target, HttpVersion: "1.1"},
		Headers:     h,
	}
}

func TestRunWritesEntries(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, 4)
	l.Record(newRequest("GET", "/info?x=1", headers.Headers{"user-agent": "curl/8.4.0", "host": "localhost:3000"}))
	l.Record(newRequest("POST", "/", headers.Headers{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Run(ctx); err != nil {
		t.Fatal(err)
	}

	want := "GET\n/info?x=1\n" +
		"  host: localhost:3000\n" +
		"  user-agent: curl/8.4.0\n" +
		"POST\n/\n"
	if got := buf.String(); got != want {
		t.Errorf("log output mismatch:\ngot  %q\nwant %q", got, want)
	}
}

func TestRecordDoesNotBlockWhenFull(t *testing.T) {
	l := New(&bytes.Buffer{}, 1)
	for range 3 {
		l.Record(newRequest("GET", "/", headers.Headers{}))
	}
	if got := l.Dropped(); got != 2 {
		t.Errorf("Dropped() = %d, want 2", got)
	}
}

func TestRecordCopiesHeaders(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, 1)
	h := headers.Headers{"host": "localhost"}
	l.Record(newRequest("GET", "/", h))
	h.Set("host", "changed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "GET\n/\n  host: localhost\n"; got != want {
		t.Errorf("log output = %q, want %q", got, want)
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestRunReturnsWriteError(t *testing.T) {
	l := New(failWriter{}, 1)
	l.Record(newRequest("GET", "/", headers.Headers{}))
	if err := l.Run(context.Background()); err == nil {
		t.Fatal("Run succeeded with failing writer")
	}
}

func TestRunReportsDroppedEntries(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, 1)
	for range 3 {
		l.Record(newRequest("GET", "/", headers.Headers{}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Run(ctx); err != nil {
		t.Fatal(err)
	}

	want := "dropped 2 request log entries\nGET\n/\n"
	if got := buf.String(); got != want {
		t.Errorf("log output = %q, want %q", got, want)
	}

	// Already reported drops are not repeated on the next run.
	buf.Reset()
	l.Record(newRequest("POST", "/info", headers.Headers{}))
	if err := l.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "POST\n/info\n"; got != want {
		t.Errorf("second run output = %q, want %q", got, want)
	}
}
