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

package metrics

import (
	"math"
	"sort"

	"go.uber.org/atomic"
)

// IHistogram is the interface that emits histogram metrics.
type IHistogram interface {
	// AddSample records a sample into histogram.
	AddSample(value float64)
	// GetBuckets gets a snapshot of the histogram buckets.
	GetBuckets() []Bucket
}

// HistogramSink extends Sink in a way that allows to load a named Histogram configuration.
// Those who do not implement HistogramSink must define their own default bucket configuration.
type HistogramSink interface {
	Register(name string, o HistogramOption)
}

// HistogramOption defines configurations when register a histogram.
type HistogramOption struct {
	BucketBounds BucketBounds
}

// Bucket is a snapshot of one histogram bucket, which counts the samples in
// [LowerBound, UpperBound).
type Bucket struct {
	LowerBound float64
	UpperBound float64
	Count      int64
}

// histogram adds each sample to one of the predefined buckets.
type histogram struct {
	name   string
	bounds BucketBounds
	upper  []float64 // sorted upper bounds, the last one is +Inf.
	counts []atomic.Int64
}

func newHistogram(name string, bounds BucketBounds) *histogram {
	sorted := bounds.sorted()
	upper := append(sorted, math.Inf(1))
	return &histogram{
		name:   name,
		bounds: bounds,
		upper:  upper,
		counts: make([]atomic.Int64, len(upper)),
	}
}

// AddSample adds a new sample.
func (h *histogram) AddSample(value float64) {
	idx := sort.Search(len(h.upper), func(i int) bool { return value < h.upper[i] })
	if idx == len(h.upper) {
		idx = len(h.upper) - 1
	}
	h.counts[idx].Inc()

	s := sinks()
	if len(s) == 0 {
		return
	}
	rec := NewSingleDimensionMetrics(h.name, value, PolicyHistogram)
	for _, sink := range s {
		sink.Report(rec)
	}
}

// GetBuckets gets the buckets.
func (h *histogram) GetBuckets() []Bucket {
	buckets := make([]Bucket, len(h.upper))
	lower := math.Inf(-1)
	for i := range h.upper {
		buckets[i] = Bucket{LowerBound: lower, UpperBound: h.upper[i], Count: h.counts[i].Load()}
		lower = h.upper[i]
	}
	return buckets
}

// BucketBounds allows developers to customize Buckets of histogram.
type BucketBounds []float64

// NewValueBounds creates a value bounds.
func NewValueBounds(bounds ...float64) BucketBounds {
	return bounds
}

// NewExponentialBounds creates count bounds starting at start, each multiplied by factor.
func NewExponentialBounds(start, factor float64, count int) BucketBounds {
	bounds := make(BucketBounds, 0, count)
	for i := 0; i < count; i++ {
		bounds = append(bounds, start)
		start *= factor
	}
	return bounds
}

func (v BucketBounds) sorted() []float64 {
	c := make([]float64, len(v))
	copy(c, v)
	sort.Float64s(c)
	return c
}
