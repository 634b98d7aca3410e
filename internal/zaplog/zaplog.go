// Package zaplog adapts zap to the pion logging interfaces the library
// accepts, so commands get structured console output while the library
// itself stays logger-agnostic.
package zaplog

import (
	"fmt"

	"github.com/pion/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Factory builds scoped pion loggers backed by one shared zap logger.
type Factory struct {
	// Base is the zap logger every scoped logger derives from. A nil
	// Base produces no-op loggers.
	Base *zap.Logger
}

var _ logging.LoggerFactory = (*Factory)(nil)

// NewFactory builds a console-encoded factory on stderr that logs at
// and above level.
func NewFactory(level zapcore.Level) (*Factory, error) {
	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("zaplog: build logger: %w", err)
	}
	return &Factory{Base: base}, nil
}

// NewLogger returns a logger named after scope.
func (f *Factory) NewLogger(scope string) logging.LeveledLogger {
	base := f.Base
	if base == nil {
		base = zap.NewNop()
	}
	return &leveled{sugar: base.Named(scope).Sugar()}
}

// Sync flushes buffered entries. Commands call it on exit.
func (f *Factory) Sync() error {
	if f.Base == nil {
		return nil
	}
	return f.Base.Sync()
}

// leveled maps the pion levels onto zap. Trace has no zap equivalent
// and logs at debug.
type leveled struct {
	sugar *zap.SugaredLogger
}

var _ logging.LeveledLogger = (*leveled)(nil)

func (l *leveled) Trace(msg string)                          { l.sugar.Debug(msg) }
func (l *leveled) Tracef(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *leveled) Debug(msg string)                          { l.sugar.Debug(msg) }
func (l *leveled) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *leveled) Info(msg string)                           { l.sugar.Info(msg) }
func (l *leveled) Infof(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *leveled) Warn(msg string)                           { l.sugar.Warn(msg) }
func (l *leveled) Warnf(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *leveled) Error(msg string)                          { l.sugar.Error(msg) }
func (l *leveled) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }
