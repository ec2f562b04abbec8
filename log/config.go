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

package log

// Writer names.
const (
	OutputConsole = "console"
	OutputFile    = "file"
)

// Config is the log config. Each OutputConfig is a separate output, the same
// entry is written to all of them.
type Config []OutputConfig

// OutputConfig is the output config, includes console and file.
type OutputConfig struct {
	// Writer is the output of log, such as console or file.
	Writer string `yaml:"writer" toml:"writer"`
	// Level controls the log level, like debug, info or error.
	Level string `yaml:"level" toml:"level"`
	// Formatter is the format of log, such as console or json.
	Formatter string `yaml:"formatter" toml:"formatter"`
	// Filename is the file written by the file writer.
	Filename string `yaml:"filename" toml:"filename"`
	// CallerKey is the key of the caller field, "C" if empty.
	CallerKey string `yaml:"caller_key" toml:"caller_key"`
	// TimeFmt is the time format, such as "2006-01-02", "seconds" or "milliseconds".
	TimeFmt string `yaml:"time_fmt" toml:"time_fmt"`
	// EnableColor colors the level in console output.
	EnableColor bool `yaml:"enable_color" toml:"enable_color"`
}

var defaultConfig = Config{
	{
		Writer:    OutputConsole,
		Level:     "debug",
		Formatter: "console",
	},
}
