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

// Package demand provides the outstanding demand counter of a subscription.
package demand

import (
	"math"

	"go.uber.org/atomic"
)

// Unbounded is the demand value meaning no more accounting is needed.
const Unbounded = math.MaxInt64

// SatAdd adds two non-negative numbers, saturating at math.MaxInt64.
func SatAdd(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// Counter counts requested but not yet delivered items. It is safe for concurrent use,
// Request calls may race with the delivery loop.
type Counter struct {
	n atomic.Int64
}

// Add adds n (n > 0) to the counter, saturating at Unbounded, and returns the previous value.
func (c *Counter) Add(n int64) int64 {
	for {
		prev := c.n.Load()
		if prev == Unbounded {
			return prev
		}
		if c.n.CompareAndSwap(prev, SatAdd(prev, n)) {
			return prev
		}
	}
}

// TryDecrement takes one unit of demand, it reports false if there is none.
// Unbounded demand is never decremented.
func (c *Counter) TryDecrement() bool {
	for {
		n := c.n.Load()
		if n <= 0 {
			return false
		}
		if n == Unbounded || c.n.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

// Take takes all outstanding demand and resets the counter to zero.
func (c *Counter) Take() int64 {
	return c.n.Swap(0)
}

// Load returns the outstanding demand.
func (c *Counter) Load() int64 {
	return c.n.Load()
}
