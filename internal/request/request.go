package request

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shigetaa/node-js5http/internal/headers"
)

type parserState int

const (
	StateInitialized parserState = iota
	StateParsingHeaders
	StateParsingBody
	StateDone
)

var (
	// ErrIncomplete is returned when the connection ends before a full
	// request has been read.
	ErrIncomplete = errors.New("unexpected EOF: incomplete request")

	ErrHeaderTooLarge = errors.New("request line and headers too large")
	ErrBodyTooLarge   = errors.New("request body too large")
)

const (
	// MaxHeaderBytes caps the request line plus header section.
	MaxHeaderBytes = 16 << 10
	MaxBodyBytes   = 1 << 20
)

type Request struct {
	RequestLine RequestLine
	Headers     headers.Headers
	Body        []byte

	state         parserState
	headerBytes   int
	contentLength int
}

type RequestLine struct {
	HttpVersion string
	// RequestTarget is the raw target from the request line, query string
	// included. It is never decoded or normalized.
	RequestTarget string
	Method        string
}

const (
	crlf       = "\r\n"
	bufferSize = 8
)

func parseRequestLine(data []byte) (*RequestLine, int, error) {
	idx := bytes.Index(data, []byte(crlf))
	if idx == -1 {
		return nil, 0, nil
	}

	requestLine, err := requestLineFromString(string(data[:idx]))
	if err != nil {
		return nil, 0, err
	}

	return requestLine, idx + len(crlf), nil
}

func requestLineFromString(str string) (*RequestLine, error) {
	parts := strings.Split(str, " ")
	if len(parts) != 3 {
		return nil, fmt.Errorf("poorly formatted request-line: %s", str)
	}

	method := parts[0]
	if method == "" {
		return nil, fmt.Errorf("empty method: %s", str)
	}
	for _, c := range method {
		if c < 'A' || c > 'Z' {
			return nil, fmt.Errorf("invalid method: %s", method)
		}
	}

	requestTarget := parts[1]
	if requestTarget == "" {
		return nil, fmt.Errorf("empty request-target: %s", str)
	}

	httpPart, version, ok := strings.Cut(parts[2], "/")
	if !ok {
		return nil, fmt.Errorf("malformed start-line: %s", str)
	}
	if httpPart != "HTTP" {
		return nil, fmt.Errorf("unrecognized HTTP-version: %s", httpPart)
	}
	if version != "1.1" && version != "1.0" {
		return nil, fmt.Errorf("unrecognized HTTP-version: %s", version)
	}

	return &RequestLine{
		Method:        method,
		RequestTarget: requestTarget,
		HttpVersion:   version,
	}, nil
}

func (r *Request) parse(data []byte) (int, error) {
	totalBytesParsed := 0

	for r.state != StateDone {
		n, err := r.parseSingle(data[totalBytesParsed:])
		if err != nil {
			return totalBytesParsed, err
		}
		if n == 0 {
			break
		}
		totalBytesParsed += n
	}
	return totalBytesParsed, nil
}

func (r *Request) parseSingle(data []byte) (int, error) {
	switch r.state {
	case StateInitialized:
		requestLine, n, err := parseRequestLine(data)
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, nil
		}

		r.RequestLine = *requestLine
		r.Headers = headers.NewHeaders()
		r.headerBytes += n
		r.state = StateParsingHeaders
		return n, nil

	case StateParsingHeaders:
		n, done, err := r.Headers.Parse(data)
		if err != nil {
			return 0, err
		}
		r.headerBytes += n
		if r.headerBytes > MaxHeaderBytes {
			return 0, ErrHeaderTooLarge
		}
		if done {
			length, err := r.parseContentLength()
			if err != nil {
				return 0, err
			}
			r.contentLength = length
			if length == 0 {
				r.state = StateDone
			} else {
				r.Body = make([]byte, 0, length)
				r.state = StateParsingBody
			}
		}
		return n, nil

	case StateParsingBody:
		n := min(r.contentLength-len(r.Body), len(data))
		r.Body = append(r.Body, data[:n]...)
		if len(r.Body) == r.contentLength {
			r.state = StateDone
		}
		return n, nil

	case StateDone:
		return 0, fmt.Errorf("error: trying to read data in a done state")

	default:
		return 0, fmt.Errorf("error: unknown state")
	}
}

func (r *Request) parseContentLength() (int, error) {
	v := r.Headers.Get("content-length")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) || n < 0 {
		return 0, fmt.Errorf("invalid content-length: %q", v)
	}
	if err != nil || n > MaxBodyBytes {
		return 0, fmt.Errorf("%w: content-length %s", ErrBodyTooLarge, v)
	}
	return int(n), nil
}

// pendingHeaderBytes reports whether unparsed bytes still belong to the
// request line or header section.
func (r *Request) pendingHeaderBytes() bool {
	return r.state == StateInitialized || r.state == StateParsingHeaders
}

// RequestFromReader reads a single request from reader. Reads may be
// arbitrarily fragmented; the internal buffer grows as needed.
func RequestFromReader(reader io.Reader) (*Request, error) {
	buf := make([]byte, bufferSize)
	readToIndex := 0

	req := &Request{
		state: StateInitialized,
	}

	for req.state != StateDone {
		if req.pendingHeaderBytes() && req.headerBytes+readToIndex > MaxHeaderBytes {
			return nil, ErrHeaderTooLarge
		}
		if readToIndex == len(buf) {
			newBuf := make([]byte, len(buf)*2)
			copy(newBuf, buf)
			buf = newBuf
		}

		n, err := reader.Read(buf[readToIndex:])
		readToIndex += n

		if n > 0 {
			consumed, parseErr := req.parse(buf[:readToIndex])
			if parseErr != nil {
				return nil, parseErr
			}
			copy(buf, buf[consumed:readToIndex])
			readToIndex -= consumed
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	if req.state != StateDone {
		return nil, ErrIncomplete
	}

	return req, nil
}
