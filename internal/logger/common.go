package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	zp "go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.ytsaurus.tech/library/go/core/log"
	"go.ytsaurus.tech/library/go/core/log/zap"
)

// Log is the process-wide logger. It is console based by default and
// replaced by the CLI once --log-level/--log-config are parsed.
var Log log.Logger

func AdditionalComponentCallerEncoder(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	path := caller.String()
	lastIndex := len(path) - 1
	for i := 0; i < 3; i++ {
		lastIndex = strings.LastIndex(path[0:lastIndex], "/")
		if lastIndex == -1 {
			break
		}
	}
	if lastIndex > 0 {
		path = path[lastIndex+1:]
	}
	enc.AppendString(path)
}

func getEnvLogLevel() zapcore.Level {
	if level, ok := os.LookupEnv("LOG_LEVEL"); ok {
		return parseLevel(level)
	}
	return zapcore.InfoLevel
}

func parseLevel(level string) zapcore.Level {
	lvl := zapcore.InfoLevel
	if level != "" {
		var l zapcore.Level
		if err := l.UnmarshalText([]byte(strings.ToLower(level))); err == nil {
			lvl = l
		} else {
			fmt.Fprintf(os.Stderr, "unknown LOG_LEVEL %q, falling back to info\n", level)
		}
	}
	return lvl
}

func DefaultLoggerConfig(level zapcore.Level) zp.Config {
	encoder := zapcore.CapitalColorLevelEncoder
	if !isatty.IsTerminal(os.Stdout.Fd()) || !isatty.IsTerminal(os.Stderr.Fd()) {
		encoder = zapcore.CapitalLevelEncoder
	}

	return zp.Config{
		Level:            zp.NewAtomicLevelAt(level),
		Encoding:         "console",
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:     "msg",
			LevelKey:       "level",
			TimeKey:        "ts",
			CallerKey:      "caller",
			EncodeLevel:    encoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   AdditionalComponentCallerEncoder,
		},
	}
}

func init() {
	cfg := DefaultLoggerConfig(getEnvLogLevel())
	if os.Getenv("CI") == "1" || strings.HasSuffix(os.Args[0], ".test") {
		cfg.Level = zp.NewAtomicLevelAt(zp.DebugLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	host, _ := os.Hostname()
	Log = log.With(zap.Must(cfg), log.Any("host", host))
}
