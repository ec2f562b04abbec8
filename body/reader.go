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

	"trpc.group/trpc-go/trpc-flow"
	"trpc.group/trpc-go/trpc-flow/stream"
)

// Reader creates a body publishing the content of r, in chunks of stream.chunk_size
// bytes. The body accepts a single subscriber since r can be read only once. r is
// closed at the end of the subscription if it is an io.Closer.
//
// The next chunk is read before demand for it arrives, so a blocking r is read once
// more after the requested chunks have been published, and the subscriber is
// completed at EOF without an extra request.
func Reader(r io.Reader, length int64, opts ...stream.Option) flow.BodyPublisher {
	return WithLength(stream.Once(stream.Generate(func() stream.Iterator[[]byte] {
		return newReaderIterator(r, chunkSize(0))
	}, opts...)), length)
}

// ReaderFunc creates a body calling open for each subscription, for contents that
// can be read again such as files. Reads run one chunk ahead of demand as in Reader.
func ReaderFunc(open func() (io.Reader, error), length int64, opts ...stream.Option) flow.BodyPublisher {
	return Generate(func() stream.Iterator[[]byte] {
		r, err := open()
		if err != nil {
			return stream.IteratorFunc[[]byte](func() ([]byte, bool, error) {
				return nil, false, err
			})
		}
		return newReaderIterator(r, chunkSize(0))
	}, length, opts...)
}

type readerIterator struct {
	r    io.Reader
	size int
	eof  bool
}

func newReaderIterator(r io.Reader, size int) *readerIterator {
	return &readerIterator{r: r, size: size}
}

// Next reads the next chunk, a short read is published as is.
func (it *readerIterator) Next() ([]byte, bool, error) {
	for !it.eof {
		buf := make([]byte, it.size)
		n, err := it.r.Read(buf)
		if errors.Is(err, io.EOF) {
			it.eof = true
		} else if err != nil {
			return nil, false, err
		}
		if n > 0 {
			return buf[:n:n], true, nil
		}
	}
	return nil, false, nil
}

// Close closes the reader if it is an io.Closer.
func (it *readerIterator) Close() error {
	if c, ok := it.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
