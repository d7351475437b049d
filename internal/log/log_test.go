package log

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLoggerIsUsable(t *testing.T) {
	l := GetLogger()
	require.NotNil(t, l)
	assert.False(t, l.IsDebugEnabled())
	assert.False(t, l.IsTraceEnabled())
}

func TestInitNilKeepsDefaults(t *testing.T) {
	before := GetLogger()
	require.NoError(t, Init(nil))
	assert.Same(t, before, GetLogger())
}

func TestBuildInvalidLevel(t *testing.T) {
	_, err := build(&Config{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid level")
}

func TestBuildUnknownAppender(t *testing.T) {
	_, err := build(&Config{Appenders: []AppenderConfig{{Type: "syslog"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown appender")
}

func TestBuildFileAppenderNeedsFilename(t *testing.T) {
	_, err := build(&Config{Appenders: []AppenderConfig{{Type: "file"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filename")
}

func TestBuildDebugLevel(t *testing.T) {
	l, err := build(&Config{Level: "debug"})
	require.NoError(t, err)
	assert.True(t, l.IsDebugEnabled())
	assert.False(t, l.IsTraceEnabled())
}

func TestFormatterPattern(t *testing.T) {
	f := &formatter{pattern: "%time [%level] %field %msg%n", time: "2006-01-02"}
	entry := &logrus.Entry{
		Time:    time.Date(2023, 5, 8, 0, 0, 0, 0, time.UTC),
		Level:   logrus.InfoLevel,
		Message: "session started",
		Data:    logrus.Fields{"pid": 42, "component": "session"},
	}

	out, err := f.Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "2023-05-08 [info] component=session,pid=42 session started\n", string(out))
}

func TestFormatterNoFields(t *testing.T) {
	f := &formatter{pattern: "%level %msg%n", time: time.RFC3339}
	entry := &logrus.Entry{Level: logrus.WarnLevel, Message: "shutting down"}

	out, err := f.Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "warn shutting down\n", string(out))
}
