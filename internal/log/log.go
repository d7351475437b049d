package log

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu     sync.Mutex
	logger Logger
)

func init() {
	// Usable before Init: console appender at info level.
	l, err := build(DefaultConfig())
	if err != nil {
		panic(err)
	}
	logger = l
}

// GetLogger returns the process logger.
func GetLogger() Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Init replaces the process logger with one built from cfg. A nil cfg keeps
// the defaults.
func Init(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	l, err := build(cfg)
	if err != nil {
		return err
	}
	mu.Lock()
	logger = l
	mu.Unlock()
	return nil
}

func build(cfg *Config) (Logger, error) {
	defaults := DefaultConfig()
	if cfg.Level == "" {
		cfg.Level = defaults.Level
	}
	if cfg.Pattern == "" {
		cfg.Pattern = defaults.Pattern
	}
	if cfg.Time == "" {
		cfg.Time = defaults.Time
	}
	if len(cfg.Appenders) == 0 {
		cfg.Appenders = defaults.Appenders
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log: invalid level %q: %w", cfg.Level, err)
	}

	out := NewMultiWriter()
	for _, app := range cfg.Appenders {
		switch app.Type {
		case "console":
			out.AddConsoleAppender()
		case "file":
			if app.File == nil || app.File.Filename == "" {
				return nil, fmt.Errorf("log: file appender needs a filename")
			}
			out.AddFileAppender(*app.File)
		default:
			return nil, fmt.Errorf("log: unknown appender type %q", app.Type)
		}
	}

	l := logrus.New()
	l.SetLevel(level)
	l.SetOutput(out)
	l.SetFormatter(&formatter{pattern: cfg.Pattern, time: cfg.Time})
	return newLogrusLogger(l), nil
}
