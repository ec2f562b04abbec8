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

// Package prometheus exports trpc-flow metrics to a Prometheus registry.
package prometheus

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trpc.group/trpc-go/trpc-flow/metrics"
)

// Name is the name of the Prometheus sink.
const Name = "prometheus"

// Sink is a metrics.Sink which keeps one Prometheus collector per metric name.
type Sink struct {
	namespace string
	registry  *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// NewSink creates a Sink registering its collectors in a fresh registry. Metric names
// are prefixed with namespace.
func NewSink(namespace string) *Sink {
	return &Sink{
		namespace:  namespace,
		registry:   prometheus.NewRegistry(),
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// Name implements metrics.Sink.
func (s *Sink) Name() string {
	return Name
}

// Registry returns the registry the collectors are registered in.
func (s *Sink) Registry() *prometheus.Registry {
	return s.registry
}

// Handler returns an http.Handler serving the registry in the exposition format.
func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Register implements metrics.HistogramSink.
func (s *Sink) Register(name string, o metrics.HistogramOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histogram(name, o.BucketBounds)
}

// Report implements metrics.Sink.
func (s *Sink) Report(rec metrics.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range rec.GetMetrics() {
		switch m.Policy() {
		case metrics.PolicySUM:
			s.counter(m.Name()).Add(m.Value())
		case metrics.PolicySET:
			s.gauge(m.Name()).Set(m.Value())
		case metrics.PolicyHistogram:
			s.histogram(m.Name(), nil).Observe(m.Value())
		default:
			// not supported policies
		}
	}
	return nil
}

func (s *Sink) counter(name string) prometheus.Counter {
	if c, ok := s.counters[name]; ok {
		return c
	}
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: s.namespace,
		Name:      metricName(name) + "_total",
		Help:      name,
	})
	s.registry.MustRegister(c)
	s.counters[name] = c
	return c
}

func (s *Sink) gauge(name string) prometheus.Gauge {
	if g, ok := s.gauges[name]; ok {
		return g
	}
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: s.namespace,
		Name:      metricName(name),
		Help:      name,
	})
	s.registry.MustRegister(g)
	s.gauges[name] = g
	return g
}

// histogram must be called with s.mu held. Empty bounds fall back to prometheus.DefBuckets.
func (s *Sink) histogram(name string, bounds metrics.BucketBounds) prometheus.Histogram {
	if h, ok := s.histograms[name]; ok {
		return h
	}
	buckets := []float64(bounds)
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: s.namespace,
		Name:      metricName(name),
		Help:      name,
		Buckets:   buckets,
	})
	s.registry.MustRegister(h)
	s.histograms[name] = h
	return h
}

// metricName turns a dotted trpc-flow metric name into a valid Prometheus name.
func metricName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == ':':
			return r
		default:
			return '_'
		}
	}, name)
}
