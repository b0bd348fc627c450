// Package logging builds the zap loggers used by the commands.
package logging

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger writing to stderr. level is a zap level name ("debug",
// "info", ...) and format is "console" or "json".
func New(level, format string) (*zap.Logger, error) {
	atomic, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, eris.Wrapf(err, "parse log level %q", level)
	}

	var encoder zapcore.EncoderConfig
	switch format {
	case "", "console":
		format = "console"
		encoder = zap.NewDevelopmentEncoderConfig()
		encoder.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "json":
		encoder = zap.NewProductionEncoderConfig()
		encoder.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, eris.Errorf("unknown log format %q", format)
	}

	config := zap.Config{
		Level:            atomic,
		Encoding:         format,
		EncoderConfig:    encoder,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}

	logger, err := config.Build()
	if err != nil {
		return nil, eris.Wrap(err, "build logger")
	}
	return logger, nil
}
