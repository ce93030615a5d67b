package response

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/shigetaa/node-js5http/internal/headers"
)

type WriterState int

const (
	StateInitialized WriterState = iota
	StateStatusWritten
	StateHeadersWritten
	StateBodyWritten
)

type StatusCode int

const (
	StatusOK                  StatusCode = 200
	StatusBadRequest          StatusCode = 400
	StatusNotFound            StatusCode = 404
	StatusInternalServerError StatusCode = 500
)

func (c StatusCode) Reason() string {
	switch c {
	case StatusOK:
		return "OK"
	case StatusBadRequest:
		return "Bad Request"
	case StatusNotFound:
		return "Not Found"
	case StatusInternalServerError:
		return "Internal Server Error"
	}
	return ""
}

// ErrWriteOrder is returned when a part of the response is written out of
// order or after the body has been written.
var ErrWriteOrder = errors.New("response written out of order")

// Writer writes one HTTP/1.1 response. The status line, headers and body
// must be written in that order, each exactly once.
type Writer struct {
	w     io.Writer
	state WriterState
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:     w,
		state: StateInitialized,
	}
}

func (w *Writer) WriteStatusLine(statusCode StatusCode) error {
	if w.state != StateInitialized {
		return fmt.Errorf("status line: %w", ErrWriteOrder)
	}

	statusLine := fmt.Sprintf("HTTP/1.1 %d %s\r\n", statusCode, statusCode.Reason())
	if _, err := io.WriteString(w.w, statusLine); err != nil {
		return err
	}

	w.state = StateStatusWritten
	return nil
}

func GetDefaultHeaders(contentLen int) headers.Headers {
	h := headers.NewHeaders()
	h.Set("content-length", strconv.Itoa(contentLen))
	h.Set("connection", "close")
	h.Set("content-type", "text/plain")

	return h
}

// WriteHeaders writes the header section in sorted key order followed by
// the blank line.
func (w *Writer) WriteHeaders(h headers.Headers) error {
	if w.state != StateStatusWritten {
		return fmt.Errorf("headers: %w", ErrWriteOrder)
	}
	for _, k := range h.Keys() {
		if _, err := fmt.Fprintf(w.w, "%s: %s\r\n", k, h[k]); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w.w, "\r\n"); err != nil {
		return err
	}

	w.state = StateHeadersWritten
	return nil
}

// WriteBody writes the body and finalizes the response.
func (w *Writer) WriteBody(p []byte) (int, error) {
	if w.state != StateHeadersWritten {
		return 0, fmt.Errorf("body: %w", ErrWriteOrder)
	}

	n, err := w.w.Write(p)
	if err != nil {
		return n, err
	}

	w.state = StateBodyWritten
	return n, nil
}

// WriteHTML writes a complete text/html response with the given status.
func (w *Writer) WriteHTML(statusCode StatusCode, body string) error {
	if err := w.WriteStatusLine(statusCode); err != nil {
		return err
	}
	h := GetDefaultHeaders(len(body))
	h.Set("content-type", "text/html")
	if err := w.WriteHeaders(h); err != nil {
		return err
	}
	_, err := w.WriteBody([]byte(body))
	return err
}

func (w *Writer) IsInitialized() bool {
	return w.state == StateInitialized
}

// Finalized reports whether the body has been written.
func (w *Writer) Finalized() bool {
	return w.state == StateBodyWritten
}
