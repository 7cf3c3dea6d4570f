package logger

import (
	zp "go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.ytsaurus.tech/library/go/core/log"
	"go.ytsaurus.tech/library/go/core/log/zap"
	"golang.org/x/xerrors"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatMinimal = "minimal"
)

// NewLoggerConfig builds zap config for the CLI flags --log-level and --log-config.
func NewLoggerConfig(level, format string) (zp.Config, error) {
	cfg := DefaultLoggerConfig(zapcore.DebugLevel)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	switch format {
	case FormatConsole:
	case FormatJSON:
		cfg = zp.NewProductionConfig()
	case FormatMinimal:
		cfg.EncoderConfig = zapcore.EncoderConfig{
			MessageKey:     "message",
			LevelKey:       "level",
			TimeKey:        "",
			NameKey:        "",
			CallerKey:      "",
			FunctionKey:    "",
			StacktraceKey:  "",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeName:     nil,
			EncodeDuration: nil,
		}
	default:
		return cfg, xerrors.Errorf("unsupported value \"%s\" for --log-config", format)
	}

	switch level {
	case "panic":
		cfg.Level.SetLevel(zapcore.PanicLevel)
	case "fatal":
		cfg.Level.SetLevel(zapcore.FatalLevel)
	case "error":
		cfg.Level.SetLevel(zapcore.ErrorLevel)
	case "warning":
		cfg.Level.SetLevel(zapcore.WarnLevel)
	case "info":
		cfg.Level.SetLevel(zapcore.InfoLevel)
	case "debug":
		cfg.Level.SetLevel(zapcore.DebugLevel)
	default:
		return cfg, xerrors.Errorf("unsupported value \"%s\" for --log-level", level)
	}
	return cfg, nil
}

// Setup replaces the global logger according to CLI flags.
func Setup(level, format string) error {
	cfg, err := NewLoggerConfig(level, format)
	if err != nil {
		return err
	}
	l, err := zap.New(cfg)
	if err != nil {
		return xerrors.Errorf("unable to build logger: %w", err)
	}
	Log = l
	return nil
}

var _ log.Logger = (*zap.Logger)(nil)
