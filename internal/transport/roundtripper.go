package transport

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

type logRoundTripper struct {
	logger *zap.Logger
	rt     http.RoundTripper
}

func (rt logRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := rt.rt.RoundTrip(req)
	latency := time.Since(start)

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int64("content_length", req.ContentLength),
		zap.Duration("latency", latency),
	}
	if err != nil {
		rt.logger.Debug("http request failed", append(fields, zap.Error(err))...)
		return resp, err
	}
	rt.logger.Debug("http request completed", append(fields, zap.Int("status_code", resp.StatusCode))...)
	return resp, nil
}
