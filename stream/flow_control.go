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

package stream

import (
	"go.uber.org/atomic"

	"trpc.group/trpc-go/trpc-flow"
)

// Window is the flow control of a receiver, counted in items. It requests the whole
// window up front and requests again once a quarter of the window has been consumed,
// so the sender is never granted more than the window ahead of the receiver.
type Window struct {
	size      int64
	unUpdated int64 // Consumed, no window update sent.
	granted   atomic.Int64
	received  atomic.Int64
	request   func(n int64)
}

// NewWindow creates a Window of size items, calling request to grant demand.
// A size <= 0 takes stream.window of the global config, the size is capped at
// flow.MaxWindow.
func NewWindow(size int, request func(n int64)) *Window {
	return &Window{
		size:    int64(windowSize(size)),
		request: request,
	}
}

func windowSize(s int) int {
	if s <= 0 {
		s = flow.GlobalConfig().Stream.Window
	}
	if s <= 0 {
		return flow.DefaultWindow
	}
	if s > flow.MaxWindow {
		return flow.MaxWindow
	}
	return s
}

// Size returns the window size.
func (w *Window) Size() int {
	return int(w.size)
}

// Open grants the initial window.
func (w *Window) Open() {
	w.grant(w.size)
}

// OnRecv is called when n items are received, and the window is updated.
func (w *Window) OnRecv(n int64) {
	w.received.Add(n)
	w.unUpdated += n
	threshold := w.size / 4
	if threshold == 0 {
		threshold = 1
	}
	if w.unUpdated >= threshold {
		increment := w.unUpdated
		w.unUpdated = 0
		w.grant(increment)
	}
}

// Outstanding returns the number of items granted but not received yet.
func (w *Window) Outstanding() int64 {
	return w.granted.Load() - w.received.Load()
}

func (w *Window) grant(n int64) {
	w.granted.Add(n)
	if w.request != nil {
		w.request(n)
	}
}
