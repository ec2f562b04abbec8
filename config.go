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

package flow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"trpc.group/trpc-go/trpc-flow/executor"
	"trpc.group/trpc-go/trpc-flow/internal/env"
	"trpc.group/trpc-go/trpc-flow/internal/expandenv"
	"trpc.group/trpc-go/trpc-flow/log"
	"trpc.group/trpc-go/trpc-flow/metrics"
	"trpc.group/trpc-go/trpc-flow/metrics/prometheus"
)

// Defaults of the stream section.
const (
	DefaultChunkSize = 16 * 1024
	DefaultWindow    = 32
	MaxWindow        = 1 << 16
)

// Executor types.
const (
	ExecutorInline    = "inline"
	ExecutorGoroutine = "goroutine"
	ExecutorPool      = "pool"
)

const (
	defaultPoolSize           = 64
	defaultConformanceTimeout = 2000 // in ms
)

// Config is the configuration of trpc-flow, which can be divided into 5 parts:
// 1. Stream config.
// 2. Executor config.
// 3. Log config.
// 4. Metrics config.
// 5. Conformance config.
type Config struct {
	Stream struct {
		// ChunkSize is the size of the chunks cut by body publishers, in bytes.
		ChunkSize int `yaml:"chunk_size" toml:"chunk_size"`
		// Window is the number of chunks a transport requests ahead.
		Window int `yaml:"window" toml:"window"`
	} `yaml:"stream" toml:"stream"`
	// Executor is installed as executor.Default, which runs the deliveries of
	// publishers and transports created without an explicit executor. Deliveries
	// nest, so a blocking pool must have more workers than concurrent streams.
	Executor struct {
		Type        string `yaml:"type" toml:"type"`               // inline, goroutine or pool.
		PoolSize    int    `yaml:"pool_size" toml:"pool_size"`     // Number of workers of the pool.
		Nonblocking bool   `yaml:"nonblocking" toml:"nonblocking"` // Refused tasks run on the caller.
	} `yaml:"executor" toml:"executor"`
	Log     log.Config `yaml:"log" toml:"log"`
	Metrics struct {
		Sinks     []string `yaml:"sinks" toml:"sinks"`         // console, noop or prometheus.
		Namespace string   `yaml:"namespace" toml:"namespace"` // Namespace of prometheus metrics.
	} `yaml:"metrics" toml:"metrics"`
	Conformance struct {
		TimeoutMs   int `yaml:"timeout_ms" toml:"timeout_ms"`   // Timeout of one case, in ms.
		Parallelism int `yaml:"parallelism" toml:"parallelism"` // Number of cases run at the same time.
	} `yaml:"conformance" toml:"conformance"`
}

// trpc-flow config, set after the config file is parsed.
var globalConfig atomic.Value

func init() {
	cfg := defaultConfig()
	_ = RepairConfig(cfg)
	globalConfig.Store(cfg)
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Stream.ChunkSize = DefaultChunkSize
	cfg.Stream.Window = DefaultWindow
	cfg.Executor.Type = ExecutorInline
	cfg.Metrics.Namespace = "trpc_flow"
	return cfg
}

// GlobalConfig returns the global Config.
func GlobalConfig() *Config {
	return globalConfig.Load().(*Config)
}

// SetGlobalConfig set the global Config.
func SetGlobalConfig(cfg *Config) {
	globalConfig.Store(cfg)
}

// LoadGlobalConfig loads a Config from the config file path and sets it as the global Config.
func LoadGlobalConfig(configPath string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	SetGlobalConfig(cfg)
	return nil
}

// LoadConfig loads a Config from the config file path. A .toml file is parsed as TOML,
// any other file as YAML. Environment variables override the file.
func LoadConfig(configPath string) (*Config, error) {
	cfg, err := parseConfigFromFile(configPath)
	if err != nil {
		return nil, err
	}
	if err := overrideFromEnv(cfg); err != nil {
		return nil, err
	}
	if err := RepairConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseConfigFromFile(configPath string) (*Config, error) {
	buf, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	// expand environment variables
	buf = expandenv.ExpandEnv(buf)

	cfg := defaultConfig()
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".toml":
		err = toml.Unmarshal(buf, cfg)
	default:
		err = yaml.Unmarshal(buf, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", configPath, err)
	}
	return cfg, nil
}

func overrideFromEnv(cfg *Config) error {
	for key, dst := range map[string]*int{
		env.ChunkSize: &cfg.Stream.ChunkSize,
		env.Window:    &cfg.Stream.Window,
		env.PoolSize:  &cfg.Executor.PoolSize,
	} {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			continue
		}
		n, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("environment %s: %w", key, err)
		}
		*dst = n
	}
	return nil
}

// RepairConfig repairs the Config by filling in some fields with default values.
func RepairConfig(cfg *Config) error {
	if cfg.Stream.ChunkSize <= 0 {
		cfg.Stream.ChunkSize = DefaultChunkSize
	}
	if cfg.Stream.Window <= 0 {
		cfg.Stream.Window = DefaultWindow
	}
	if cfg.Stream.Window > MaxWindow {
		cfg.Stream.Window = MaxWindow
	}
	setDefault(&cfg.Executor.Type, ExecutorInline)
	switch cfg.Executor.Type {
	case ExecutorInline, ExecutorGoroutine, ExecutorPool:
	default:
		return fmt.Errorf("executor type %q not supported", cfg.Executor.Type)
	}
	if cfg.Executor.PoolSize <= 0 {
		cfg.Executor.PoolSize = defaultPoolSize
	}
	setDefault(&cfg.Metrics.Namespace, "trpc_flow")
	if cfg.Conformance.TimeoutMs <= 0 {
		cfg.Conformance.TimeoutMs = defaultConformanceTimeout
	}
	if cfg.Conformance.Parallelism <= 0 {
		cfg.Conformance.Parallelism = 1
	}
	return nil
}

func setDefault(dst *string, def string) {
	if dst != nil && *dst == "" {
		*dst = def
	}
}

// Setup installs the logger, the metrics sinks and the default executor described by
// cfg. The returned function undoes the setup.
func Setup(cfg *Config) (func() error, error) {
	var closers []func() error
	closeAll := func() error {
		var result *multierror.Error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				result = multierror.Append(result, err)
			}
		}
		return result.ErrorOrNil()
	}

	if len(cfg.Log) > 0 {
		logger, err := log.NewZapLogE(cfg.Log, 2)
		if err != nil {
			return nil, err
		}
		previous := log.GetDefaultLogger()
		log.SetLogger(logger)
		closers = append(closers, func() error {
			log.SetLogger(previous)
			return logger.Sync()
		})
	}

	for _, name := range cfg.Metrics.Sinks {
		sink, err := newSink(name, cfg.Metrics.Namespace)
		if err != nil {
			_ = closeAll()
			return nil, err
		}
		metrics.RegisterMetricsSink(sink)
		closers = append(closers, func() error {
			metrics.UnregisterMetricsSink(sink.Name())
			return nil
		})
	}

	exec, release, err := newExecutor(cfg)
	if err != nil {
		_ = closeAll()
		return nil, err
	}
	executor.SetDefault(exec)
	closers = append(closers, func() error {
		executor.SetDefault(nil)
		release()
		return nil
	})
	return closeAll, nil
}

func newSink(name, namespace string) (metrics.Sink, error) {
	switch name {
	case "console":
		return metrics.NewConsoleSink(), nil
	case "noop":
		return metrics.NoopSink{}, nil
	case prometheus.Name:
		return prometheus.NewSink(namespace), nil
	default:
		return nil, fmt.Errorf("metrics sink %q not supported", name)
	}
}

func newExecutor(cfg *Config) (executor.Executor, func(), error) {
	switch cfg.Executor.Type {
	case ExecutorGoroutine:
		return executor.Goroutine(), func() {}, nil
	case ExecutorPool:
		var opts []executor.PoolOption
		if cfg.Executor.Nonblocking {
			opts = append(opts, executor.WithNonblocking())
		}
		p, err := executor.NewPool(cfg.Executor.PoolSize, opts...)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Release, nil
	default:
		return executor.Inline(), func() {}, nil
	}
}
