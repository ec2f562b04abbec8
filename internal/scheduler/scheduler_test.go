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

package scheduler

import (
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"

	"trpc.group/trpc-go/trpc-flow/executor"
)

func TestRunIsNotReentrant(t *testing.T) {
	var (
		depth, maxDepth, runs int
		s                     *Sequential
	)
	s = New(func() {
		depth++
		if depth > maxDepth {
			maxDepth = depth
		}
		runs++
		if runs < 5 {
			s.Run()
		}
		depth--
	})
	s.Run()
	assert.Equal(t, 1, maxDepth)
	assert.Equal(t, 5, runs)
}

func TestStop(t *testing.T) {
	runs := 0
	s := New(func() { runs++ })
	s.Run()
	s.Stop()
	s.Run()
	s.RunOn(executor.Inline())
	assert.True(t, s.Stopped())
	assert.Equal(t, 1, runs)
}

func TestRunOnExecutor(t *testing.T) {
	p, err := executor.NewPool(4)
	assert.Nil(t, err)
	defer p.Release()

	var (
		running atomic.Int32
		overlap atomic.Bool
		runs    atomic.Int32
		wg      sync.WaitGroup
	)
	s := New(func() {
		if running.Inc() > 1 {
			overlap.Store(true)
		}
		runs.Inc()
		running.Dec()
	})
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RunOn(p)
		}()
	}
	wg.Wait()
	for s.wip.Load() != 0 {
		runtime.Gosched()
	}
	assert.False(t, overlap.Load())
	assert.GreaterOrEqual(t, runs.Load(), int32(1))
}

func TestRunOnRefusingExecutor(t *testing.T) {
	runs := 0
	s := New(func() { runs++ })
	s.RunOn(executor.Func(func(func()) error { return assert.AnError }))
	s.RunOn(nil)
	assert.Equal(t, 2, runs)
}
