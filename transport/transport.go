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

// Package transport is an in-process transport for request and response bodies. It
// drives a request body publisher the way a network transport does, requesting
// chunks within a receive window, and echoes them into a response body subscriber.
package transport

import (
	"sync"

	"trpc.group/trpc-go/trpc-flow/executor"
	"trpc.group/trpc-go/trpc-flow/log"
)

// DefaultName is the name the default Transport is registered with.
const DefaultName = "loopback"

var (
	transports    = make(map[string]*Transport)
	muxTransports = sync.RWMutex{}
)

func init() {
	Register(DefaultName, New())
}

// Options are the options of a Transport.
type Options struct {
	// Window is the number of chunks requested ahead of the response subscriber,
	// <= 0 takes stream.window of the global config.
	Window int
	// Executor runs the delivery loop, nil takes executor.Default when an exchange starts.
	Executor executor.Executor
	// Logger logs the faults of exchanges, nil logs to the default Logger.
	Logger log.Logger
}

// Option modifies the Options.
type Option func(*Options)

// WithWindow sets the receive window, in chunks.
func WithWindow(n int) Option {
	return func(o *Options) {
		o.Window = n
	}
}

// WithExecutor sets the executor of the delivery loop.
func WithExecutor(e executor.Executor) Option {
	return func(o *Options) {
		o.Executor = e
	}
}

// WithLogger sets the Logger of the transport.
func WithLogger(l log.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// Transport exchanges request bodies for response bodies. It is safe for concurrent
// use, every exchange has its own state.
type Transport struct {
	opts Options
}

// New creates a Transport.
func New(opts ...Option) *Transport {
	t := &Transport{}
	for _, o := range opts {
		o(&t.opts)
	}
	return t
}

// executor returns the executor of the transport, executor.Default if none is set.
func (t *Transport) executor() executor.Executor {
	if t.opts.Executor != nil {
		return t.opts.Executor
	}
	return executor.Default()
}

func (t *Transport) logger() log.Logger {
	if t.opts.Logger != nil {
		return t.opts.Logger
	}
	return log.GetDefaultLogger()
}

// Register registers a Transport by name.
func Register(name string, t *Transport) {
	if t == nil {
		panic("transport: register nil transport")
	}
	if name == "" {
		panic("transport: register empty name of transport")
	}
	muxTransports.Lock()
	transports[name] = t
	muxTransports.Unlock()
}

// Get gets the Transport registered by name, nil if there is none.
func Get(name string) *Transport {
	muxTransports.RLock()
	t := transports[name]
	muxTransports.RUnlock()
	return t
}

// Default returns the Transport registered as DefaultName.
func Default() *Transport {
	return Get(DefaultName)
}
