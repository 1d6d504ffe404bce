// Package logging configures go-zero's logx for sift.
//
// The TUI owns the terminal, so interactive runs log to files under the data
// directory. Headless commands log to the console.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeromicro/go-zero/core/logx"
)

// ServiceName tags every log line.
const ServiceName = "sift"

// Options selects where and how much to log.
type Options struct {
	// Dir is the data directory; file logs go to Dir/logs.
	Dir     string
	Level   string
	Console bool
}

// Conf builds the logx configuration for opts.
func Conf(opts Options) logx.LogConf {
	level := opts.Level
	if level == "" {
		level = "info"
	}

	conf := logx.LogConf{
		ServiceName: ServiceName,
		Encoding:    "plain",
		Level:       level,
	}
	if opts.Console {
		conf.Mode = "console"
		return conf
	}
	conf.Mode = "file"
	conf.Path = filepath.Join(opts.Dir, "logs")
	conf.KeepDays = 7
	return conf
}

// Setup configures the global logger. Call Close before exiting so file
// writers flush.
func Setup(opts Options) error {
	conf := Conf(opts)
	if conf.Mode == "file" {
		if err := os.MkdirAll(conf.Path, 0o700); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	if err := logx.SetUp(conf); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	logx.DisableStat()
	return nil
}

// Close flushes and closes the log writers.
func Close() {
	_ = logx.Close()
}
