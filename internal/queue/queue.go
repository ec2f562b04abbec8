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

// Package queue implements infinite queue, supporting blocking data acquisition.
package queue

import (
	"container/list"
	"sync"
)

// Queue uses list and channel to achieve blocking acquisition and infinite queue.
// A closed queue keeps handing out the elements already put before it reports the end.
type Queue[T any] struct {
	list    *list.List
	notify  chan struct{}
	mu      sync.Mutex
	waiting bool
	closed  bool
	err     error
	done    <-chan struct{}
}

// New initializes a queue, done is used to notify Queue.Get() from blocking.
func New[T any](done <-chan struct{}) *Queue[T] {
	return &Queue[T]{
		list:   list.New(),
		notify: make(chan struct{}, 1),
		done:   done,
	}
}

// Put puts an element into the queue, it reports false if the queue is already closed.
// Put and Get can be concurrent, multiple Put can be concurrent.
func (q *Queue[T]) Put(v T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.list.PushBack(v)
	q.wakeUpLocked()
	return true
}

// Close closes the queue with err, which is returned by Err once the queue is drained.
// Only the first Close takes effect.
func (q *Queue[T]) Close(err error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.err = err
	q.wakeUpLocked()
}

// wakeUpLocked releases q.mu and wakes up a blocking Get.
func (q *Queue[T]) wakeUpLocked() {
	wakeUp := q.waiting
	q.waiting = false
	q.mu.Unlock()
	if wakeUp {
		select {
		case q.notify <- struct{}{}:
		default:
		}
	}
}

// Get gets an element from the queue, blocking if there is no content.
// Put and Get can be concurrent, but not concurrent Get.
// It returns false when the queue is closed and drained, or done is notified.
func (q *Queue[T]) Get() (T, bool) {
	for {
		v, ok, closed := q.tryGet()
		if ok || closed {
			return v, ok
		}
		select {
		case <-q.notify:
			continue
		case <-q.done:
			var zero T
			return zero, false
		}
	}
}

// TryGet gets an element from the queue without blocking.
func (q *Queue[T]) TryGet() (T, bool) {
	v, ok, _ := q.tryGet()
	return v, ok
}

func (q *Queue[T]) tryGet() (v T, ok bool, closed bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if e := q.list.Front(); e != nil {
		q.list.Remove(e)
		return e.Value.(T), true, false
	}
	if q.closed {
		return v, false, true
	}
	q.waiting = true
	return v, false, false
}

// Len returns the number of queued elements.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.list.Len()
}

// Err returns the error the queue was closed with.
func (q *Queue[T]) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}
