package main

import (
	"context"

	"github.com/sirupsen/logrus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// collectCounters reads every int64 sum from reader, skipping zeros.
func collectCounters(ctx context.Context, reader sdkmetric.Reader) (logrus.Fields, error) {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}

	fields := logrus.Fields{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				if dp.Value != 0 {
					fields[m.Name] = dp.Value
				}
			}
		}
	}
	return fields, nil
}
