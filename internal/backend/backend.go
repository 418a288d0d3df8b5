package backend

import (
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// Backend forwards requests to a single upstream URL.
type Backend struct {
	url   *url.URL
	proxy *httputil.ReverseProxy
}

// Result is the outcome of one forwarded request.
type Result struct {
	StatusCode int
	// Err is the transport error, nil when the upstream produced a response.
	Err error
	// Written is false when nothing reached the client, which makes a retry safe.
	Written bool
}

// Failed reports whether the attempt should count against the target.
func (r Result) Failed() bool {
	return r.Err != nil || r.StatusCode >= http.StatusInternalServerError
}

var errNoResponse = errors.New("upstream produced no response")

// New creates a Backend for the given URL.
func New(u *url.URL) *Backend {
	proxy := httputil.NewSingleHostReverseProxy(u)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		if rec, ok := w.(*responseRecorder); ok {
			rec.transportErr = err
			if rec.suppressErrors {
				return
			}
		}
		w.WriteHeader(http.StatusBadGateway)
	}

	return &Backend{
		url:   u,
		proxy: proxy,
	}
}

// URL returns the upstream URL.
func (b *Backend) URL() *url.URL {
	return b.url
}

// Forward proxies r to the upstream. When retryable is set a transport
// failure writes nothing to w so the caller can try another target.
func (b *Backend) Forward(w http.ResponseWriter, r *http.Request, retryable bool) Result {
	rec := &responseRecorder{
		ResponseWriter: w,
		suppressErrors: retryable,
	}

	b.proxy.ServeHTTP(rec, r)

	result := Result{
		StatusCode: rec.statusCode,
		Err:        rec.transportErr,
		Written:    rec.wroteHeader,
	}

	if result.Err == nil && !rec.wroteHeader {
		// ReverseProxy always writes a header on success
		result.Err = errNoResponse
	}

	return result
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode     int
	wroteHeader    bool
	suppressErrors bool
	transportErr   error
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.statusCode = code
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer for flushing.
func (r *responseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
