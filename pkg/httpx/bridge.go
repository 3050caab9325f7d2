package httpx

import (
	"net/http"
	"net/url"
)

// FromHTTPHandler wraps a net/http handler as an httpx.HandlerFunc so it can
// be served through any adapter (notably FastHTTPAdapter). The
// httpx.ResponseWriter method set matches http.ResponseWriter, so the writer
// passes through unchanged.
func FromHTTPHandler(h http.Handler) HandlerFunc {
	return func(w ResponseWriter, r *Request) {
		u, err := url.ParseRequestURI(r.URI)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid request uri"}`))
			return
		}
		hr := &http.Request{
			Method:     r.Method,
			URL:        u,
			Proto:      "HTTP/1.1",
			ProtoMajor: 1,
			ProtoMinor: 1,
			Header:     r.Header,
			Body:       r.Body,
			RequestURI: r.URI,
			RemoteAddr: r.RemoteAddr,
			Host:       r.Header.Get("Host"),
		}
		hr = hr.WithContext(r.Ctx)
		h.ServeHTTP(w, hr)
	}
}
