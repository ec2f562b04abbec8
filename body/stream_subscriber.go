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
	"errors"
	"io"
	"sync"

	"trpc.group/trpc-go/trpc-flow"
	"trpc.group/trpc-go/trpc-flow/internal/queue"
)

// ErrReaderClosed is returned by the reader of Stream once it is closed.
var ErrReaderClosed = errors.New("body: read on closed body reader")

// Stream creates a subscriber whose body is an io.ReadCloser over the chunks. The body
// completes as soon as the subscription starts. The reader requests one chunk at a
// time, so the publisher never gets ahead of it by more than a chunk. Closing the
// reader cancels the subscription. The reader must not be read concurrently.
func Stream() flow.BodySubscriber[io.ReadCloser] {
	done := make(chan struct{})
	s := &streamSubscriber{
		chunks: queue.New[[]byte](done),
		done:   done,
	}
	s.body = flow.NewFuture[io.ReadCloser]()
	return s
}

type streamSubscriber struct {
	sink[io.ReadCloser]
	chunks *queue.Queue[[]byte]

	cur       []byte
	requested bool

	closeOnce sync.Once
	done      chan struct{}
}

func (s *streamSubscriber) OnSubscribe(sub flow.Subscription) {
	if s.accept(sub) {
		s.body.Complete(s)
	}
}

func (s *streamSubscriber) OnNext(chunk []byte) {
	s.chunks.Put(chunk)
}

func (s *streamSubscriber) OnError(err error) {
	s.chunks.Close(err)
}

func (s *streamSubscriber) OnComplete() {
	s.chunks.Close(nil)
}

// Read implements io.Reader.
func (s *streamSubscriber) Read(p []byte) (int, error) {
	if s.closed() {
		return 0, ErrReaderClosed
	}
	for len(s.cur) == 0 {
		if chunk, ok := s.chunks.TryGet(); ok {
			s.requested = false
			s.cur = chunk
			continue
		}
		if !s.requested {
			s.requested = true
			s.sub.Request(1)
			continue
		}
		chunk, ok := s.chunks.Get()
		if !ok {
			if s.closed() {
				return 0, ErrReaderClosed
			}
			if err := s.chunks.Err(); err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		s.requested = false
		s.cur = chunk
	}
	n := copy(p, s.cur)
	s.cur = s.cur[n:]
	return n, nil
}

func (s *streamSubscriber) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Close implements io.Closer, it cancels the subscription.
func (s *streamSubscriber) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.sub.Cancel()
		s.chunks.Close(ErrReaderClosed)
	})
	return nil
}
