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

// Package body provides the publishers and subscribers of byte bodies: in-memory,
// reader backed and concatenated request bodies, and subscribers turning a response
// body into a value.
package body

import (
	"trpc.group/trpc-go/trpc-flow"
	"trpc.group/trpc-go/trpc-flow/stream"
)

// publisher binds a declared length to a publisher of chunks.
type publisher struct {
	flow.Publisher[[]byte]
	length int64
}

// ContentLength implements flow.BodyPublisher.
func (p *publisher) ContentLength() int64 {
	return p.length
}

// WithLength declares length for a publisher of chunks. A negative length declares
// flow.UnknownLength. The chunks are not checked against length.
func WithLength(p flow.Publisher[[]byte], length int64) flow.BodyPublisher {
	return &publisher{Publisher: p, length: flow.LengthOf(length).Int64()}
}

// Bytes creates a body publishing b as a single chunk. b must not be modified
// while the body is in use.
func Bytes(b []byte, opts ...stream.Option) flow.BodyPublisher {
	if len(b) == 0 {
		return WithLength(stream.Empty[[]byte](opts...), 0)
	}
	return WithLength(stream.FromSlice([][]byte{b}, opts...), int64(len(b)))
}

// BytesChunked creates a body publishing b in chunks of size bytes, the last chunk
// may be shorter. A size <= 0 takes stream.chunk_size of the global config.
func BytesChunked(b []byte, size int, opts ...stream.Option) flow.BodyPublisher {
	size = chunkSize(size)
	chunks := make([][]byte, 0, (len(b)+size-1)/size)
	for len(b) > 0 {
		n := size
		if n > len(b) {
			n = len(b)
		}
		chunks = append(chunks, b[:n:n])
		b = b[n:]
	}
	return Chunks(chunks, opts...)
}

// String creates a body publishing s as a single chunk.
func String(s string, opts ...stream.Option) flow.BodyPublisher {
	return Bytes([]byte(s), opts...)
}

// Chunks creates a body publishing chunks in order. Its length is the sum of the
// chunk lengths.
func Chunks(chunks [][]byte, opts ...stream.Option) flow.BodyPublisher {
	var length int64
	for _, c := range chunks {
		length += int64(len(c))
	}
	return WithLength(stream.FromSlice(chunks, opts...), length)
}

// Generate creates a body publishing the chunks of a fresh iterator per subscription,
// declaring length.
func Generate(factory func() stream.Iterator[[]byte], length int64, opts ...stream.Option) flow.BodyPublisher {
	return WithLength(stream.Generate(factory, opts...), length)
}

// Map creates a body publishing fn applied to each chunk of p, declaring length.
func Map(p flow.Publisher[[]byte], fn func([]byte) ([]byte, error), length int64) flow.BodyPublisher {
	return WithLength(stream.Map(p, fn), length)
}

// NoBody is a body with no content: it declares length 0 and completes on the first
// request.
func NoBody() flow.BodyPublisher {
	return Concat()
}

func chunkSize(size int) int {
	if size > 0 {
		return size
	}
	if size = flow.GlobalConfig().Stream.ChunkSize; size > 0 {
		return size
	}
	return flow.DefaultChunkSize
}
