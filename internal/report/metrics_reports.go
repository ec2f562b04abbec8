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

// Package report reports the statistics of the library.
package report

import (
	"trpc.group/trpc-go/trpc-flow/metrics"
)

// Unified all metrics report inside the library. Every property starts with "flow.".
var (
	// -----------------------------stream----------------------------- //
	// a chunk is handed to a subscriber's OnNext.
	ChunksDelivered = metrics.Counter("flow.ChunksDelivered")
	// a subscription ends with OnComplete.
	StreamsCompleted = metrics.Counter("flow.StreamsCompleted")
	// a subscription ends with OnError.
	StreamsErrored = metrics.Counter("flow.StreamsErrored")
	// a subscription ends by Cancel, no terminal signal is delivered.
	StreamsCancelled = metrics.Counter("flow.StreamsCancelled")
	// Request is called with a non-positive count.
	IllegalDemand = metrics.Counter("flow.IllegalDemand")

	// -----------------------------faults----------------------------- //
	// a subscriber callback panics.
	SubscriberPanic = metrics.Counter("flow.SubscriberPanic")
	// Subscribe, Request or Cancel of a publisher panics.
	PublisherPanic = metrics.Counter("flow.PublisherPanic")
	// a task running on an executor panics.
	ExecutorPanic = metrics.Counter("flow.ExecutorPanic")
	// the worker pool refuses a task.
	ExecutorBusy = metrics.Counter("flow.ExecutorBusy")

	// -----------------------------transport----------------------------- //
	// size of the chunks moved through a transport exchange.
	ChunkSize = metrics.Histogram("flow.ChunkSize",
		metrics.NewExponentialBounds(64, 4, 8))
	// the receive window of the last started exchange.
	TransportWindow = metrics.Gauge("flow.TransportWindow")
	// an exchange fails.
	ExchangeFail = metrics.Counter("flow.ExchangeFail")
)
