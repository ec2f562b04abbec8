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

package body

import (
	"bytes"
	"math"

	"github.com/cespare/xxhash"
	"go.uber.org/atomic"

	"trpc.group/trpc-go/trpc-flow"
)

// sink is the part shared by body subscribers: a single subscription and the future
// of the body.
type sink[T any] struct {
	subscribed atomic.Bool
	sub        flow.Subscription
	body       *flow.Future[T]
}

// accept keeps the first subscription and cancels any later one.
func (s *sink[T]) accept(sub flow.Subscription) bool {
	if !s.subscribed.CompareAndSwap(false, true) {
		sub.Cancel()
		return false
	}
	s.sub = sub
	return true
}

// Body implements flow.BodySubscriber.
func (s *sink[T]) Body() *flow.Future[T] {
	return s.body
}

// accumulator requests the whole body and folds its chunks into a value.
type accumulator[T any] struct {
	sink[T]
	onChunk func([]byte) error
	result  func() T
}

func newAccumulator[T any](onChunk func([]byte) error, result func() T) *accumulator[T] {
	a := &accumulator[T]{onChunk: onChunk, result: result}
	a.body = flow.NewFuture[T]()
	return a
}

func (a *accumulator[T]) OnSubscribe(sub flow.Subscription) {
	if a.accept(sub) {
		sub.Request(math.MaxInt64)
	}
}

func (a *accumulator[T]) OnNext(chunk []byte) {
	if a.body.IsDone() {
		return
	}
	if err := a.onChunk(chunk); err != nil {
		// the body fails before the cancellation is seen.
		a.body.Fail(err)
		a.sub.Cancel()
	}
}

func (a *accumulator[T]) OnError(err error) {
	a.body.Fail(err)
}

func (a *accumulator[T]) OnComplete() {
	if !a.body.IsDone() {
		a.body.Complete(a.result())
	}
}

// Collect creates a subscriber collecting the body into a byte slice.
func Collect() flow.BodySubscriber[[]byte] {
	buf := &bytes.Buffer{}
	return newAccumulator(func(chunk []byte) error {
		buf.Write(chunk)
		return nil
	}, func() []byte {
		return buf.Bytes()
	})
}

// CollectString creates a subscriber collecting the body into a string.
func CollectString() flow.BodySubscriber[string] {
	buf := &bytes.Buffer{}
	return newAccumulator(func(chunk []byte) error {
		buf.Write(chunk)
		return nil
	}, buf.String)
}

// Discard creates a subscriber reading and dropping the whole body.
func Discard() flow.BodySubscriber[struct{}] {
	return Replace(struct{}{})
}

// Replace creates a subscriber dropping the body and completing with v once the
// body has been read.
func Replace[T any](v T) flow.BodySubscriber[T] {
	return newAccumulator(func([]byte) error { return nil }, func() T { return v })
}

// Each creates a subscriber calling fn for each chunk. An error returned by fn cancels
// the body and fails the subscriber.
func Each(fn func(chunk []byte) error) flow.BodySubscriber[struct{}] {
	return newAccumulator(fn, func() struct{} { return struct{}{} })
}

// Hash creates a subscriber computing the xxhash64 digest of the body.
func Hash() flow.BodySubscriber[uint64] {
	d := xxhash.New()
	return newAccumulator(func(chunk []byte) error {
		_, err := d.Write(chunk)
		return err
	}, d.Sum64)
}

// Mapping creates a subscriber reading the body with s and mapping its value with fn.
func Mapping[T, U any](s flow.BodySubscriber[T], fn func(T) (U, error)) flow.BodySubscriber[U] {
	return &mapping[T, U]{
		BodySubscriber: s,
		body:           flow.MapFuture(s.Body(), fn),
	}
}

type mapping[T, U any] struct {
	flow.BodySubscriber[T]
	body *flow.Future[U]
}

// Body implements flow.BodySubscriber.
func (m *mapping[T, U]) Body() *flow.Future[U] {
	return m.body
}
