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

package emitter

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-flow"
	"trpc.group/trpc-go/trpc-flow/errs"
)

type recorder struct {
	mu        sync.Mutex
	items     []int
	errs      []error
	completes int
	onNext    func(int)
}

func (r *recorder) OnSubscribe(flow.Subscription) {}

func (r *recorder) OnNext(i int) {
	if r.onNext != nil {
		r.onNext(i)
	}
	r.mu.Lock()
	r.items = append(r.items, i)
	r.mu.Unlock()
}

func (r *recorder) OnError(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

func (r *recorder) OnComplete() {
	r.mu.Lock()
	r.completes++
	r.mu.Unlock()
}

func TestEmitterAtMostOnceTerminal(t *testing.T) {
	r := &recorder{}
	e := New[int](r)
	require.Nil(t, e.Subscribe(&flow.SubscriptionFuncs{}))
	assert.Equal(t, flow.StateSubscribed, e.State())
	require.Nil(t, e.Next(1))
	assert.Equal(t, flow.StateDelivering, e.State())
	require.Nil(t, e.Complete())
	require.Nil(t, e.Error(errors.New("late")))
	require.Nil(t, e.Next(2))
	assert.False(t, e.Stop())

	assert.Equal(t, []int{1}, r.items)
	assert.Equal(t, 1, r.completes)
	assert.Empty(t, r.errs)
	assert.True(t, e.Done())
	assert.Equal(t, flow.StateCompleted, e.State())
	assert.Equal(t, int64(1), e.Delivered())
}

func TestEmitterError(t *testing.T) {
	r := &recorder{}
	e := New[int](r)
	require.Nil(t, e.Error(nil))
	require.Len(t, r.errs, 1)
	assert.Equal(t, errs.ErrUnknown, r.errs[0])
	assert.Equal(t, flow.StateErrored, e.State())
}

func TestEmitterStop(t *testing.T) {
	r := &recorder{}
	e := New[int](r)
	assert.True(t, e.Stop())
	assert.Nil(t, e.Next(1))
	assert.Nil(t, e.Complete())
	assert.Empty(t, r.items)
	assert.Equal(t, 0, r.completes)
	assert.Equal(t, flow.StateCancelled, e.State())
}

func TestEmitterTerminalDuringNext(t *testing.T) {
	var e *Emitter[int]
	r := &recorder{}
	r.onNext = func(int) {
		// the terminal signal waits for OnNext to return.
		assert.Nil(t, e.Complete())
		assert.Equal(t, 0, r.completes)
	}
	e = New[int](r)
	require.Nil(t, e.Next(1))
	assert.Equal(t, []int{1}, r.items)
	assert.Equal(t, 1, r.completes)
}

func TestEmitterRecoversPanics(t *testing.T) {
	boom := errors.New("boom")
	e := New[int](&flow.SubscriberFuncs[int]{
		OnSubscribeFunc: func(flow.Subscription) { panic(boom) },
		OnNextFunc:      func(int) { panic("next") },
		OnCompleteFunc:  func() { panic(boom) },
	})
	err := e.Subscribe(&flow.SubscriptionFuncs{})
	assert.Equal(t, errs.RetSubscriberFail, errs.Code(err))
	assert.True(t, errors.Is(err, boom))

	err = e.Next(1)
	assert.Equal(t, errs.RetSubscriberFail, errs.Code(err))
	assert.Contains(t, err.Error(), "panic: next")

	err = e.Complete()
	assert.Equal(t, errs.RetSubscriberFail, errs.Code(err))
	assert.True(t, errors.Is(err, boom))
	assert.Nil(t, e.Complete())
}

func TestEmitterConcurrentTerminal(t *testing.T) {
	for i := 0; i < 100; i++ {
		r := &recorder{}
		e := New[int](r)
		var wg sync.WaitGroup
		wg.Add(3)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = e.Next(j)
			}
		}()
		go func() {
			defer wg.Done()
			_ = e.Complete()
		}()
		go func() {
			defer wg.Done()
			_ = e.Error(errors.New("boom"))
		}()
		wg.Wait()
		assert.Equal(t, 1, r.completes+len(r.errs))
	}
}
