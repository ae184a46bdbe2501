package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Option configures the logger built by New.
type Option func(*options)

type options struct {
	level  zapcore.Level
	format string
	fields []zap.Field
}

// WithLevel sets the minimum level.
func WithLevel(level zapcore.Level) Option {
	return func(o *options) { o.level = level }
}

// WithDebug switches to debug level when on is true.
func WithDebug(on bool) Option {
	return func(o *options) {
		if on {
			o.level = zapcore.DebugLevel
		}
	}
}

// WithQuiet raises the level to warnings when on is true.
func WithQuiet(on bool) Option {
	return func(o *options) {
		if on {
			o.level = zapcore.WarnLevel
		}
	}
}

// WithFormat selects "json" or "console" output.
func WithFormat(format string) Option {
	return func(o *options) { o.format = format }
}

// WithFields attaches fields to every entry.
func WithFields(fields ...zap.Field) Option {
	return func(o *options) { o.fields = append(o.fields, fields...) }
}

// New builds a logger writing to stderr.
func New(opts ...Option) *zap.Logger {
	o := options{level: zapcore.InfoLevel, format: "console"}
	for _, opt := range opts {
		opt(&o)
	}

	var encoder zapcore.Encoder
	if o.format == "json" {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		encoder = zapcore.NewConsoleEncoder(cfg)
	}
	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zap.NewAtomicLevelAt(o.level))
	return zap.New(core, zap.AddCaller()).With(o.fields...)
}
