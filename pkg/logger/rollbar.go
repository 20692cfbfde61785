package logger

import (
	"github.com/rollbar/rollbar-go"
	"go.uber.org/zap/zapcore"
)

// Reporter forwards log entries to an external error tracker.
type Reporter interface {
	Report(level zapcore.Level, message string, err error, extras map[string]interface{})
}

// RollbarReporter sends entries through an async rollbar client.
type RollbarReporter struct {
	client *rollbar.Client
}

// NewRollbarReporter configures a rollbar client for the given environment.
func NewRollbarReporter(token, env string) *RollbarReporter {
	client := rollbar.NewAsync(token, env, "", "", "")
	return &RollbarReporter{client: client}
}

// Report implements Reporter.
func (r *RollbarReporter) Report(level zapcore.Level, message string, err error, extras map[string]interface{}) {
	rbLevel := rollbar.ERR
	if level >= zapcore.DPanicLevel {
		rbLevel = rollbar.CRIT
	}
	if err != nil {
		extras["message"] = message
		r.client.ErrorWithExtras(rbLevel, err, extras)
		return
	}
	r.client.MessageWithExtras(rbLevel, message, extras)
}

// reportingCore is a zapcore.Core that hands entries at or above a level to a Reporter.
type reportingCore struct {
	zapcore.LevelEnabler
	reporter Reporter
	fields   []zapcore.Field
}

// NewReportingCore returns a core that reports entries enabled by level.
func NewReportingCore(reporter Reporter, level zapcore.LevelEnabler) zapcore.Core {
	return &reportingCore{LevelEnabler: level, reporter: reporter}
}

func (c *reportingCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &reportingCore{LevelEnabler: c.LevelEnabler, reporter: c.reporter, fields: merged}
}

func (c *reportingCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *reportingCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	var reported error
	for _, f := range append(append([]zapcore.Field{}, c.fields...), fields...) {
		if f.Type == zapcore.ErrorType {
			if err, ok := f.Interface.(error); ok && reported == nil {
				reported = err
				continue
			}
		}
		f.AddTo(enc)
	}
	if entry.Caller.Defined {
		enc.Fields["caller"] = entry.Caller.TrimmedPath()
	}
	c.reporter.Report(entry.Level, entry.Message, reported, enc.Fields)
	return nil
}

func (c *reportingCore) Sync() error {
	return nil
}
