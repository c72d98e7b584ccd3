package core

import (
	"context"
	"strings"
)

// MetricsRecorder receives one counter and one duration histogram per
// service operation, named <service>.<operation>.total and
// <service>.<operation>.duration_ms.
type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func metricName(serviceName string, operation string, suffix string) string {
	prefix := strings.TrimSpace(serviceName)
	if prefix == "" {
		prefix = DefaultServiceName
	}
	return prefix + "." + operation + "." + suffix
}

func cloneTags(tags map[string]string) map[string]string {
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}

var _ MetricsRecorder = NopMetricsRecorder{}
