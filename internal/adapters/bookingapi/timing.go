package bookingapi

import (
	"net/http"
	"regexp"
	"time"

	"go.uber.org/zap"

	"poolside/internal/adapters/http/perf"
)

// SlowUpstreamMs is the threshold above which a booking server call is logged at WARN.
var SlowUpstreamMs = 500.0

// numericSegment collapses ids so per-activity paths aggregate together.
var numericSegment = regexp.MustCompile(`/\d+/`)

// timingTransport records every round trip to the booking server.
type timingTransport struct {
	next      http.RoundTripper
	collector *perf.Collector
}

func (t *timingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	path := req.Method + " " + numericSegment.ReplaceAllString(req.URL.Path, "/{id}/")

	t.collector.Record(perf.Entry{
		Kind:       perf.KindUpstream,
		Path:       path,
		StatusCode: status,
		DurationMs: durationMs,
		Timestamp:  start,
	})

	fields := []zap.Field{
		zap.String("path", path),
		zap.Int("status", status),
		zap.Float64("duration_ms", durationMs),
	}
	switch {
	case err != nil:
		zap.L().Warn("upstream_error", append(fields, zap.Error(err))...)
	case durationMs >= SlowUpstreamMs:
		zap.L().Warn("slow_upstream", fields...)
	default:
		zap.L().Debug("upstream", fields...)
	}
	return resp, err
}
