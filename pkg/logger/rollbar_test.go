package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type reportedEntry struct {
	level   zapcore.Level
	message string
	err     error
	extras  map[string]interface{}
}

type fakeReporter struct {
	entries []reportedEntry
}

func (f *fakeReporter) Report(level zapcore.Level, message string, err error, extras map[string]interface{}) {
	f.entries = append(f.entries, reportedEntry{level: level, message: message, err: err, extras: extras})
}

func TestReportingCoreForwardsErrorsOnly(t *testing.T) {
	reporter := &fakeReporter{}
	log := zap.New(NewReportingCore(reporter, zapcore.ErrorLevel))

	log.Info("ignored")
	log.Warn("ignored too")
	cause := errors.New("bucket offline")
	log.With(zap.String("component", "upload")).Error("upload failed", zap.Error(cause), zap.String("key", "course_images/a.png"))

	require.Len(t, reporter.entries, 1)
	entry := reporter.entries[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.level)
	assert.Equal(t, "upload failed", entry.message)
	assert.Equal(t, cause, entry.err)
	assert.Equal(t, "upload", entry.extras["component"])
	assert.Equal(t, "course_images/a.png", entry.extras["key"])
}
