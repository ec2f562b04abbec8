//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 THL A29 Limited, a Tencent company.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package metrics defines the metric handles used by trpc-flow and the Sink
// interface external monitor systems plug into.
//
//  1. counter
//     - chunks := metrics.Counter("flow.chunks")
//     chunks.Incr()
//     - metrics.IncrCounter("flow.chunks", 1)
//
//  2. gauge
//     - window := metrics.Gauge("flow.window")
//     window.Set(64)
//
//  3. histogram
//     - sizes := metrics.Histogram("flow.chunk.size", metrics.NewValueBounds(512, 4096, 16384))
//     sizes.AddSample(1024)
package metrics

import (
	"fmt"
	"sync"
)

var (
	// metricsSinks emits the same metrics to several external systems at the same time.
	metricsSinksMutex = sync.RWMutex{}
	metricsSinks      = map[string]Sink{}

	countersMutex = sync.RWMutex{}
	counters      = map[string]ICounter{}

	gaugesMutex = sync.RWMutex{}
	gauges      = map[string]IGauge{}

	histogramsMutex = sync.RWMutex{}
	histograms      = map[string]*histogram{}
)

// RegisterMetricsSink registers a Sink. Histograms that already exist are announced to
// sinks implementing HistogramSink.
func RegisterMetricsSink(sink Sink) {
	metricsSinksMutex.Lock()
	metricsSinks[sink.Name()] = sink
	metricsSinksMutex.Unlock()
	if histSink, ok := sink.(HistogramSink); ok {
		histogramsMutex.RLock()
		for _, h := range histograms {
			histSink.Register(h.name, HistogramOption{BucketBounds: h.bounds})
		}
		histogramsMutex.RUnlock()
	}
}

// UnregisterMetricsSink removes the Sink with the given name.
func UnregisterMetricsSink(name string) {
	metricsSinksMutex.Lock()
	delete(metricsSinks, name)
	metricsSinksMutex.Unlock()
}

// GetMetricsSink gets a Sink by name.
func GetMetricsSink(name string) (Sink, bool) {
	metricsSinksMutex.RLock()
	sink, ok := metricsSinks[name]
	metricsSinksMutex.RUnlock()
	return sink, ok
}

func sinks() []Sink {
	metricsSinksMutex.RLock()
	defer metricsSinksMutex.RUnlock()
	if len(metricsSinks) == 0 {
		return nil
	}
	s := make([]Sink, 0, len(metricsSinks))
	for _, sink := range metricsSinks {
		s = append(s, sink)
	}
	return s
}

// Counter creates a named counter.
func Counter(name string) ICounter {
	countersMutex.RLock()
	c, ok := counters[name]
	countersMutex.RUnlock()
	if ok {
		return c
	}
	countersMutex.Lock()
	defer countersMutex.Unlock()
	if c, ok = counters[name]; ok {
		return c
	}
	c = &counter{name: name}
	counters[name] = c
	return c
}

// Gauge creates a named gauge.
func Gauge(name string) IGauge {
	gaugesMutex.RLock()
	g, ok := gauges[name]
	gaugesMutex.RUnlock()
	if ok {
		return g
	}
	gaugesMutex.Lock()
	defer gaugesMutex.Unlock()
	if g, ok = gauges[name]; ok {
		return g
	}
	g = &gauge{name: name}
	gauges[name] = g
	return g
}

// Histogram creates a named histogram with buckets.
func Histogram(name string, buckets BucketBounds) IHistogram {
	histogramsMutex.Lock()
	h, ok := histograms[name]
	if ok {
		histogramsMutex.Unlock()
		return h
	}
	h = newHistogram(name, buckets)
	histograms[name] = h
	histogramsMutex.Unlock()

	// the histograms lock must not be held while taking the sinks lock.
	for _, sink := range sinks() {
		if histSink, ok := sink.(HistogramSink); ok {
			histSink.Register(name, HistogramOption{BucketBounds: buckets})
		}
	}
	return h
}

// IncrCounter increases counter key by value. Counters should accumulate values.
func IncrCounter(key string, value float64) {
	Counter(key).IncrBy(value)
}

// SetGauge sets gauge key to value. An IGauge retains the last set value.
func SetGauge(key string, value float64) {
	Gauge(key).Set(value)
}

// AddSample adds one sample key with value.
func AddSample(key string, buckets BucketBounds, value float64) {
	Histogram(key, buckets).AddSample(value)
}

// Report reports a record to all sinks.
func Report(rec Record) error {
	var errs []error
	for _, sink := range sinks() {
		if err := sink.Report(rec); err != nil {
			errs = append(errs, fmt.Errorf("sink-%s error: %v", sink.Name(), err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("metrics sink error: %v", errs)
}
