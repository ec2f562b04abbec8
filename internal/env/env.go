//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 Tencent.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package env defines environment variables used inside the library.
package env

// Defines all keys of the environment variables.
const (
	// LogTrace controls whether to output trace log.
	// To enable trace output, set TRPC_FLOW_LOG_TRACE=1.
	LogTrace = "TRPC_FLOW_LOG_TRACE"

	// ChunkSize overrides stream.chunk_size of the config file.
	ChunkSize = "TRPC_FLOW_CHUNK_SIZE"
	// Window overrides stream.window of the config file.
	Window = "TRPC_FLOW_WINDOW"
	// PoolSize overrides executor.pool_size of the config file.
	PoolSize = "TRPC_FLOW_POOL_SIZE"
)
