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

// Package stream provides generic publishers built on iterators, and the receive
// window used to drive them.
package stream

import (
	"trpc.group/trpc-go/trpc-flow/executor"
)

// Iterator is the data source of a publisher. Next returns the next item, ok is false
// once the source is exhausted. An Iterator implementing io.Closer is closed when its
// subscription ends, whatever the reason.
type Iterator[T any] interface {
	Next() (item T, ok bool, err error)
}

// IteratorFunc is an adapter to allow the use of ordinary functions as Iterator.
type IteratorFunc[T any] func() (T, bool, error)

// Next calls f().
func (f IteratorFunc[T]) Next() (T, bool, error) {
	return f()
}

// SliceIterator iterates over items.
func SliceIterator[T any](items []T) Iterator[T] {
	return &sliceIterator[T]{items: items}
}

type sliceIterator[T any] struct {
	items []T
	next  int
}

func (it *sliceIterator[T]) Next() (item T, ok bool, err error) {
	if it.next >= len(it.items) {
		return item, false, nil
	}
	item = it.items[it.next]
	it.next++
	return item, true, nil
}

// Option sets the options of a publisher.
type Option func(*options)

type options struct {
	exec executor.Executor
}

// WithExecutor runs the delivery loop on exec instead of the goroutine calling Request.
// Without it the loop runs on executor.Default at the time of Subscribe.
func WithExecutor(exec executor.Executor) Option {
	return func(o *options) {
		o.exec = exec
	}
}

// executor returns the executor set by WithExecutor, executor.Default otherwise.
func (o *options) executor() executor.Executor {
	if o.exec != nil {
		return o.exec
	}
	return executor.Default()
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
