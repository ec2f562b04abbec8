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
	"errors"
	"math"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-flow"
	"trpc.group/trpc-go/trpc-flow/errs"
	"trpc.group/trpc-go/trpc-flow/executor"
)

// testSubscriber records every signal it receives.
type testSubscriber[T any] struct {
	mu        sync.Mutex
	sub       flow.Subscription
	items     []T
	errs      []error
	completes int
	done      chan struct{}
	onNext    func(s *testSubscriber[T], item T)
}

func newTestSubscriber[T any]() *testSubscriber[T] {
	return &testSubscriber[T]{done: make(chan struct{})}
}

func (s *testSubscriber[T]) OnSubscribe(sub flow.Subscription) {
	s.sub = sub
}

func (s *testSubscriber[T]) OnNext(item T) {
	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()
	if s.onNext != nil {
		s.onNext(s, item)
	}
}

func (s *testSubscriber[T]) OnError(err error) {
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
	close(s.done)
}

func (s *testSubscriber[T]) OnComplete() {
	s.mu.Lock()
	s.completes++
	s.mu.Unlock()
	close(s.done)
}

func (s *testSubscriber[T]) terminals() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completes + len(s.errs)
}

func (s *testSubscriber[T]) wait(t *testing.T) {
	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		t.Fatal("no terminal signal")
	}
}

type closingIterator struct {
	Iterator[int]
	closed int
}

func (it *closingIterator) Close() error {
	it.closed++
	return nil
}

func TestFromSlice(t *testing.T) {
	s := newTestSubscriber[int]()
	FromSlice([]int{1, 2, 3}).Subscribe(s)
	require.NotNil(t, s.sub)
	assert.Empty(t, s.items)

	s.sub.Request(1)
	assert.Equal(t, []int{1}, s.items)
	assert.Equal(t, 0, s.terminals())

	// the last item is followed by OnComplete without further demand.
	s.sub.Request(2)
	assert.Equal(t, []int{1, 2, 3}, s.items)
	assert.Equal(t, 1, s.completes)

	s.sub.Request(1)
	s.sub.Cancel()
	assert.Equal(t, 1, s.terminals())
}

func TestEmpty(t *testing.T) {
	s := newTestSubscriber[string]()
	Empty[string]().Subscribe(s)
	assert.Equal(t, 0, s.terminals())
	s.sub.Request(1)
	assert.Equal(t, 1, s.completes)
	assert.Empty(t, s.items)
}

func TestIllegalDemand(t *testing.T) {
	for _, n := range []int64{0, -1, math.MinInt64} {
		t.Run(strconv.FormatInt(n, 10), func(t *testing.T) {
			s := newTestSubscriber[int]()
			FromSlice([]int{1, 2, 3}).Subscribe(s)
			s.sub.Request(1)
			assert.NotPanics(t, func() { s.sub.Request(n) })
			assert.Equal(t, []int{1}, s.items)
			require.Len(t, s.errs, 1)
			assert.Equal(t, errs.RetIllegalDemand, errs.Code(s.errs[0]))
			s.sub.Request(5)
			assert.Equal(t, []int{1}, s.items)
			assert.Equal(t, 1, s.terminals())
		})
	}
}

func TestDemandSaturates(t *testing.T) {
	items := make([]int, 100)
	s := newTestSubscriber[int]()
	FromSlice(items).Subscribe(s)
	s.sub.Request(math.MaxInt64)
	assert.Len(t, s.items, 100)

	s = newTestSubscriber[int]()
	FromSlice(items).Subscribe(s)
	s.sub.Request(math.MaxInt64 - 1)
	s.sub.Request(math.MaxInt64)
	assert.Len(t, s.items, 100)
	assert.Equal(t, 1, s.completes)
}

func TestCancel(t *testing.T) {
	it := &closingIterator{Iterator: SliceIterator([]int{1, 2, 3, 4})}
	s := newTestSubscriber[int]()
	Generate(func() Iterator[int] { return it }).Subscribe(s)
	s.sub.Request(2)
	s.sub.Cancel()
	s.sub.Cancel()
	s.sub.Request(2)
	s.sub.Request(-1)
	assert.Equal(t, []int{1, 2}, s.items)
	assert.Equal(t, 0, s.terminals())
	assert.Equal(t, 1, it.closed)
}

func TestCancelInsideOnNext(t *testing.T) {
	s := newTestSubscriber[int]()
	s.onNext = func(s *testSubscriber[int], item int) {
		if item == 2 {
			s.sub.Cancel()
		}
	}
	FromSlice([]int{1, 2, 3}).Subscribe(s)
	s.sub.Request(10)
	assert.Equal(t, []int{1, 2}, s.items)
	assert.Equal(t, 0, s.terminals())
}

func TestIteratorFailure(t *testing.T) {
	boom := errors.New("boom")
	n := 0
	it := &closingIterator{Iterator: IteratorFunc[int](func() (int, bool, error) {
		n++
		if n == 3 {
			return 0, false, boom
		}
		return n, true, nil
	})}
	s := newTestSubscriber[int]()
	Generate(func() Iterator[int] { return it }).Subscribe(s)
	s.sub.Request(10)
	assert.Equal(t, []int{1, 2}, s.items)
	require.Len(t, s.errs, 1)
	assert.Equal(t, errs.RetUpstreamFail, errs.Code(s.errs[0]))
	assert.True(t, errors.Is(s.errs[0], boom))
	assert.Equal(t, 1, it.closed)
}

func TestIteratorPanic(t *testing.T) {
	s := newTestSubscriber[int]()
	Generate(func() Iterator[int] {
		return IteratorFunc[int](func() (int, bool, error) { panic("source panic") })
	}).Subscribe(s)
	s.sub.Request(1)
	require.Len(t, s.errs, 1)
	assert.Equal(t, errs.RetUpstreamFail, errs.Code(s.errs[0]))
}

func TestFactoryFailure(t *testing.T) {
	s := newTestSubscriber[int]()
	Generate(func() Iterator[int] { return nil }).Subscribe(s)
	require.Len(t, s.errs, 1)
	assert.Equal(t, errs.RetUpstreamFail, errs.Code(s.errs[0]))

	s = newTestSubscriber[int]()
	Generate(func() Iterator[int] { panic("factory") }).Subscribe(s)
	require.Len(t, s.errs, 1)
	s.sub.Request(1)
	assert.Equal(t, 1, s.terminals())
}

func TestSubscriberPanic(t *testing.T) {
	boom := errors.New("subscriber boom")
	it := &closingIterator{Iterator: SliceIterator([]int{1, 2, 3})}
	s := newTestSubscriber[int]()
	s.onNext = func(_ *testSubscriber[int], item int) {
		if item == 2 {
			panic(boom)
		}
	}
	Generate(func() Iterator[int] { return it }).Subscribe(s)
	s.sub.Request(10)
	assert.Equal(t, []int{1, 2}, s.items)
	require.Len(t, s.errs, 1)
	assert.Equal(t, errs.RetSubscriberFail, errs.Code(s.errs[0]))
	assert.True(t, errors.Is(s.errs[0], boom))
	assert.Equal(t, 1, it.closed)
}

func TestOnSubscribePanic(t *testing.T) {
	it := &closingIterator{Iterator: SliceIterator([]int{1})}
	var got []error
	Generate(func() Iterator[int] { return it }).Subscribe(&flow.SubscriberFuncs[int]{
		OnSubscribeFunc: func(flow.Subscription) { panic("on subscribe") },
		OnErrorFunc:     func(err error) { got = append(got, err) },
	})
	require.Len(t, got, 1)
	assert.Equal(t, errs.RetSubscriberFail, errs.Code(got[0]))
	assert.Equal(t, 1, it.closed)
}

func TestReentrantRequest(t *testing.T) {
	items := make([]int, 10000)
	for i := range items {
		items[i] = i
	}
	s := newTestSubscriber[int]()
	s.onNext = func(s *testSubscriber[int], _ int) { s.sub.Request(1) }
	FromSlice(items).Subscribe(s)
	s.sub.Request(1)
	if diff := cmp.Diff(items, s.items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, s.completes)
}

func TestWithExecutor(t *testing.T) {
	p, err := executor.NewPool(2)
	require.Nil(t, err)
	defer p.Release()

	items := []string{"a", "b", "c", "d"}
	s := newTestSubscriber[string]()
	FromSlice(items, WithExecutor(p)).Subscribe(s)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.sub.Request(1)
		}()
	}
	wg.Wait()
	s.wait(t)
	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, items, s.items)
	assert.Equal(t, 1, s.completes)
}

func TestFail(t *testing.T) {
	boom := errors.New("boom")
	s := newTestSubscriber[int]()
	Fail[int](boom).Subscribe(s)
	require.NotNil(t, s.sub)
	require.Len(t, s.errs, 1)
	assert.Equal(t, boom, s.errs[0])
	s.sub.Request(1)
	s.sub.Cancel()
}

func TestOnce(t *testing.T) {
	p := Once(FromSlice([]int{1}))
	first := newTestSubscriber[int]()
	p.Subscribe(first)
	second := newTestSubscriber[int]()
	p.Subscribe(second)

	require.Len(t, second.errs, 1)
	assert.Equal(t, errs.RetAlreadySubscribed, errs.Code(second.errs[0]))
	first.sub.Request(1)
	assert.Equal(t, []int{1}, first.items)
	assert.Equal(t, 1, first.completes)
}

func TestMap(t *testing.T) {
	s := newTestSubscriber[string]()
	Map(FromSlice([]int{1, 2, 3}), func(i int) (string, error) {
		return strconv.Itoa(i * 10), nil
	}).Subscribe(s)
	s.sub.Request(3)
	assert.Equal(t, []string{"10", "20", "30"}, s.items)
	assert.Equal(t, 1, s.completes)
}

func TestMapFailure(t *testing.T) {
	boom := errors.New("boom")
	it := &closingIterator{Iterator: SliceIterator([]int{1, 2, 3})}
	s := newTestSubscriber[int]()
	Map(Generate(func() Iterator[int] { return it }), func(i int) (int, error) {
		if i == 2 {
			return 0, boom
		}
		return i, nil
	}).Subscribe(s)
	s.sub.Request(3)
	assert.Equal(t, []int{1}, s.items)
	require.Len(t, s.errs, 1)
	assert.Equal(t, errs.RetUpstreamFail, errs.Code(s.errs[0]))
	assert.True(t, errors.Is(s.errs[0], boom))
	assert.Equal(t, 1, it.closed)

	s = newTestSubscriber[int]()
	Map(FromSlice([]int{1}), func(int) (int, error) { panic("mapper") }).Subscribe(s)
	s.sub.Request(1)
	require.Len(t, s.errs, 1)
	assert.Equal(t, errs.RetUpstreamFail, errs.Code(s.errs[0]))
}

func TestMapCancel(t *testing.T) {
	s := newTestSubscriber[int]()
	Map(FromSlice([]int{1, 2, 3}), func(i int) (int, error) { return i, nil }).Subscribe(s)
	s.sub.Request(1)
	s.sub.Cancel()
	s.sub.Request(2)
	assert.Equal(t, []int{1}, s.items)
	assert.Equal(t, 0, s.terminals())
}
