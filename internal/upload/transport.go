package upload

import (
	"net/http"
	"time"

	"github.com/labstack/gommon/log"
)

// loggingTransport logs every round trip in key=value form
type loggingTransport struct {
	next   http.RoundTripper
	logger *log.Logger
}

// NewLoggingTransport wraps next (http.DefaultTransport when nil) so each
// request is logged at debug level.
func NewLoggingTransport(next http.RoundTripper, logger *log.Logger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{next: next, logger: logger}
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := t.next.RoundTrip(req)

	duration := time.Since(start)
	if err != nil {
		t.logger.Debugf("method=%s url=%s error=%q duration=%s request_id=%s",
			req.Method, req.URL.Redacted(), err.Error(), duration, req.Header.Get(HeaderRequestID))
		return nil, err
	}

	t.logger.Debugf("method=%s url=%s status=%d duration=%s bytes_sent=%d request_id=%s",
		req.Method, req.URL.Redacted(), resp.StatusCode, duration, req.ContentLength, req.Header.Get(HeaderRequestID))
	return resp, nil
}
