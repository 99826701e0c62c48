package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config describes how the process logger is built.
type Config struct {
	// ServiceName is attached to every entry as "service".
	ServiceName string
	// Env is the deployment environment (local/docker).
	Env string
	// Level is one of debug/info/warn/error, default "info".
	Level string
	// Format is "json" or "console". Default: console for local, json for docker.
	Format string
	// AddCaller adds file:line to entries. Always on for local.
	AddCaller bool
	// Output overrides the destination, os.Stderr when nil.
	Output io.Writer
}

// New builds a zap.Logger from cfg. The service and env fields are always present.
func New(cfg Config) (*zap.Logger, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		if cfg.Env == "docker" {
			cfg.Format = "json"
		} else {
			cfg.Format = "console"
		}
	}
	if cfg.Env == "local" {
		cfg.AddCaller = true
	}

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case "console":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("invalid log format: %s (must be json/console)", cfg.Format)
	}

	var out io.Writer = os.Stderr
	if cfg.Output != nil {
		out = cfg.Output
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(out), level)

	var opts []zap.Option
	if cfg.AddCaller {
		opts = append(opts, zap.AddCaller())
	}

	return zap.New(core, opts...).With(
		zap.String("service", cfg.ServiceName),
		zap.String("env", cfg.Env),
	), nil
}

func parseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", s)
	}
}

// Sync flushes the logger and ignores the harmless
// "sync /dev/stderr: invalid argument" returned on some systems.
func Sync(log *zap.Logger) {
	_ = log.Sync()
}
