// Package router maps exact request targets to fixed HTML pages.
//
// Lookup is on the raw request target as it appeared on the request line.
// No normalization is done: "/info/", "/INFO" and "/info?x=1" are all
// different keys from "/info".
package router

import (
	"log"
	"maps"

	"github.com/shigetaa/node-js5http/internal/request"
	"github.com/shigetaa/node-js5http/internal/response"
	"github.com/shigetaa/node-js5http/internal/server"
)

const (
	HelloHTML    = "<h1>Hello World</h1>"
	InfoHTML     = "<h1>Info Page</h1>"
	ContactHTML  = "<h1>Contact Page</h1>"
	NotFoundHTML = "<h1>Not Found</h1>"
)

// Table is an immutable mapping from request target to response body.
type Table struct {
	routes map[string]string
}

// NewTable copies routes into a new Table.
func NewTable(routes map[string]string) Table {
	return Table{routes: maps.Clone(routes)}
}

// Pages returns the table served by the page server.
func Pages() Table {
	return NewTable(map[string]string{
		"/":        HelloHTML,
		"/info":    InfoHTML,
		"/contact": ContactHTML,
	})
}

func (t Table) Lookup(target string) (body string, ok bool) {
	body, ok = t.routes[target]
	return body, ok
}

func (t Table) Len() int {
	return len(t.routes)
}

// Recorder receives each request after its response has been written.
type Recorder interface {
	Record(req *request.Request)
}

// New returns a handler serving t. Targets missing from t get a 404 with
// NotFoundHTML. The method is not inspected.
func New(t Table, rec Recorder) server.Handler {
	return func(w *response.Writer, req *request.Request) {
		body, ok := t.Lookup(req.RequestLine.RequestTarget)
		if ok {
			respond(w, req, rec, response.StatusOK, body)
			return
		}
		respond(w, req, rec, response.StatusNotFound, NotFoundHTML)
	}
}

// Static returns a handler that answers every request with 200 and body.
func Static(body string, rec Recorder) server.Handler {
	return func(w *response.Writer, req *request.Request) {
		respond(w, req, rec, response.StatusOK, body)
	}
}

func respond(w *response.Writer, req *request.Request, rec Recorder, code response.StatusCode, body string) {
	if err := w.WriteHTML(code, body); err != nil {
		log.Printf("error writing response for %s %s: %v", req.RequestLine.Method, req.RequestLine.RequestTarget, err)
	}
	if rec != nil {
		rec.Record(req)
	}
}
