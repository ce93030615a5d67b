package server

import (
	"github.com/shigetaa/node-js5http/internal/request"
	"github.com/shigetaa/node-js5http/internal/response"
)

// Handler writes the response for a parsed request. The connection is
// closed once it returns.
type Handler func(w *response.Writer, req *request.Request)
