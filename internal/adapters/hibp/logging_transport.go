package hibp

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// loggingTransport wraps an http.RoundTripper and logs method, path,
// latency and status of every request sent to the breach service.
// The query string and headers are left out since the API key travels there.
type loggingTransport struct {
	base   http.RoundTripper
	logger *zap.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	rt := t.base
	if rt == nil {
		rt = http.DefaultTransport
	}
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.logger.Debug("Breach service request failed",
			zap.String("method", req.Method),
			zap.String("host", req.URL.Host),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return resp, err
	}

	t.logger.Debug("Breach service request",
		zap.String("method", req.Method),
		zap.String("host", req.URL.Host),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}
