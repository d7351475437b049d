package log

// Config controls the process logger. It is embedded in the capture profile
// and may also be populated from flags.
type Config struct {
	Level     string           `yaml:"level" mapstructure:"level"`
	Pattern   string           `yaml:"pattern" mapstructure:"pattern"`
	Time      string           `yaml:"time" mapstructure:"time"`
	Appenders []AppenderConfig `yaml:"appenders" mapstructure:"appenders"`
}

// AppenderConfig selects one output target. Type is "console" or "file".
type AppenderConfig struct {
	Type string       `yaml:"type" mapstructure:"type"`
	File *FileOptions `yaml:"file,omitempty" mapstructure:"file"`
}

// FileOptions configures the rotating file appender.
type FileOptions struct {
	Filename   string `yaml:"filename" mapstructure:"filename"`
	MaxSize    int    `yaml:"max_size,omitempty" mapstructure:"max_size"`       // megabytes
	MaxBackups int    `yaml:"max_backups,omitempty" mapstructure:"max_backups"` // rotated files kept
	MaxAge     int    `yaml:"max_age,omitempty" mapstructure:"max_age"`         // days
	Compress   bool   `yaml:"compress,omitempty" mapstructure:"compress"`
}

// DefaultConfig is what the process logs with before Init runs: console
// only, info level.
func DefaultConfig() *Config {
	return &Config{
		Level:   "info",
		Pattern: "%time [%level] %field %msg%n",
		Time:    "2006-01-02 15:04:05.000",
		Appenders: []AppenderConfig{
			{Type: "console"},
		},
	}
}
