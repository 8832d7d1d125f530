package logger

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLogger adapts a zap.SugaredLogger to Logger.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// New creates a new logger with the given configuration.
//
// All loggers share one atomic level, so New also resets the global level
// to cfg.Level.
func New(cfg Config) (Logger, error) {
	globalLevel.SetLevel(parseLevel(cfg.Level))

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "source",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var enc zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "text", "console":
		enc = zapcore.NewConsoleEncoder(encCfg)
	default: // json
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(output), globalLevel)

	opts := []zap.Option{zap.AddCallerSkip(1)}
	if cfg.AddSource {
		opts = append(opts, zap.AddCaller())
	}

	return &zapLogger{sugar: zap.New(core, opts...).Sugar()}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return &zapLogger{sugar: zap.NewNop().Sugar()}
}

func (l *zapLogger) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, redactArgs(args)...)
}

func (l *zapLogger) Info(msg string, args ...any) {
	l.sugar.Infow(msg, redactArgs(args)...)
}

func (l *zapLogger) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, redactArgs(args)...)
}

func (l *zapLogger) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, redactArgs(args)...)
}

func (l *zapLogger) With(args ...any) Logger {
	return &zapLogger{sugar: l.sugar.With(redactArgs(args)...)}
}

// WithContext binds the request ID carried by ctx, if any.
func (l *zapLogger) WithContext(ctx context.Context) Logger {
	if id := RequestIDFromContext(ctx); id != "" {
		return l.With("request_id", id)
	}
	return l
}

// Sync flushes buffered entries of the default logger.
func Sync() error {
	if zl, ok := Default().(*zapLogger); ok {
		return zl.sugar.Sync()
	}
	return nil
}
