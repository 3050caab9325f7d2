// Package httpx bridges the application's net/http handlers onto alternate
// transports. The server can run on the standard library engine or on
// fasthttp; both serve the same router.
package httpx

import (
	"context"
	"io"
	"net/http"
)

// Request is the unified request representation used by adapters. URI holds
// the full request URI including the query string.
type Request struct {
	Ctx        context.Context
	Method     string
	URI        string
	Header     http.Header
	Body       io.ReadCloser
	RemoteAddr string
	// Raw holds the underlying transport-specific request object
	// (e.g. *http.Request or *fasthttp.RequestCtx) for escape hatches.
	Raw interface{}
}

// ResponseWriter mirrors the http.ResponseWriter method set, so any value
// implementing it also satisfies http.ResponseWriter.
type ResponseWriter interface {
	Header() http.Header
	Write([]byte) (int, error)
	WriteHeader(status int)
}

// HandlerFunc is the transport-neutral handler signature used by adapters.
type HandlerFunc func(w ResponseWriter, r *Request)
