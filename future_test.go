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

package flow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-flow"
	"trpc.group/trpc-go/trpc-flow/errs"
)

func TestFutureComplete(t *testing.T) {
	f := flow.NewFuture[string]()
	_, _, ok := f.TryGet()
	assert.False(t, ok)
	assert.False(t, f.IsDone())

	go func() {
		time.Sleep(10 * time.Millisecond)
		f.Complete("body")
	}()
	v, err := f.Get(context.Background())
	require.Nil(t, err)
	assert.Equal(t, "body", v)
	assert.True(t, f.IsDone())
	assert.False(t, f.Complete("again"))
	assert.False(t, f.Fail(errors.New("late")))

	v, err, ok = f.TryGet()
	assert.True(t, ok)
	assert.Nil(t, err)
	assert.Equal(t, "body", v)
}

func TestFutureFailWrapsOnce(t *testing.T) {
	root := errors.New("root fault")
	f := flow.FailedFuture[int](root)
	_, err := f.Get(context.Background())
	assert.Equal(t, errs.RetCompletion, errs.Code(err))
	assert.True(t, errors.Is(err, root))
	assert.Equal(t, root, errs.Root(err))

	g := flow.FailedFuture[int](err)
	_, err2 := g.Get(context.Background())
	assert.Same(t, err, err2)

	_, err = flow.FailedFuture[int](nil).Get(context.Background())
	assert.Equal(t, errs.RetCompletion, errs.Code(err))
}

func TestFutureGetCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := flow.NewFuture[int]().Get(ctx)
	assert.Equal(t, errs.RetCanceled, errs.Code(err))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFutureOnDone(t *testing.T) {
	f := flow.NewFuture[int]()
	var got []int
	f.OnDone(func(v int, err error) { got = append(got, v) })
	f.Complete(1)
	f.OnDone(func(v int, err error) { got = append(got, v+1) })
	assert.Equal(t, []int{1, 2}, got)
}

func TestMapFuture(t *testing.T) {
	f := flow.NewFuture[int]()
	m := flow.MapFuture(f, func(v int) (string, error) {
		return "n=" + string(rune('0'+v)), nil
	})
	f.Complete(7)
	v, err := m.Get(context.Background())
	require.Nil(t, err)
	assert.Equal(t, "n=7", v)

	boom := errors.New("boom")
	m = flow.MapFuture(flow.CompletedFuture(1), func(int) (string, error) { return "", boom })
	_, err = m.Get(context.Background())
	assert.True(t, errors.Is(err, boom))

	m = flow.MapFuture(flow.CompletedFuture(1), func(int) (string, error) { panic(boom) })
	_, err = m.Get(context.Background())
	assert.True(t, errs.IsCode(err, errs.RetSubscriberFail))
	assert.True(t, errors.Is(err, boom))

	failed := flow.FailedFuture[int](boom)
	_, want := failed.Get(context.Background())
	_, err = flow.MapFuture(failed, func(int) (int, error) { return 0, nil }).Get(context.Background())
	assert.Same(t, want, err)
}
