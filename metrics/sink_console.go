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
	"fmt"
	"io"
	"os"
	"sync"
)

// NewConsoleSink creates a new console sink writing to stdout.
func NewConsoleSink() *ConsoleSink {
	return NewWriterSink(os.Stdout)
}

// NewWriterSink creates a console sink writing to w.
func NewWriterSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{
		w:        w,
		counters: make(map[string]float64),
		gauges:   make(map[string]float64),
	}
}

// ConsoleSink prints every record and keeps the running totals of counters and
// the last value of gauges.
type ConsoleSink struct {
	mu       sync.Mutex
	w        io.Writer
	counters map[string]float64
	gauges   map[string]float64
}

// Name returns console sink name.
func (c *ConsoleSink) Name() string {
	return "console"
}

// Report reports a record.
func (c *ConsoleSink) Report(rec Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range rec.metrics {
		switch m.policy {
		case PolicySUM:
			c.counters[m.name] += m.value
			fmt.Fprintf(c.w, "metrics counter[key] = %s val = %v\n", m.name, m.value)
		case PolicySET:
			c.gauges[m.name] = m.value
			fmt.Fprintf(c.w, "metrics gauge[key] = %s val = %v\n", m.name, m.value)
		case PolicyHistogram:
			fmt.Fprintf(c.w, "metrics histogram[key] = %s val = %v\n", m.name, m.value)
		default:
			// not supported policies
		}
	}
	return nil
}

// CounterValue returns the accumulated value of counter name.
func (c *ConsoleSink) CounterValue(name string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[name]
}

// GaugeValue returns the last value of gauge name.
func (c *ConsoleSink) GaugeValue(name string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gauges[name]
}
