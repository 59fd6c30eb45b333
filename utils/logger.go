package utils

import (
	"errors"
	"os"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LoggerConfig controls where and how verbosely the application logs
type LoggerConfig struct {
	Level      string // debug, info, warn, error; defaults to info
	File       string // rotated log file; empty disables file output
	Production bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// consoleSyncer drops the EINVAL/ENOTTY that fsync returns when stdout is
// a pipe or a terminal
type consoleSyncer struct {
	*os.File
}

func (c consoleSyncer) Sync() error {
	err := c.File.Sync()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}

// NewLogger builds a JSON logger writing to stdout and to a rotating file.
// Outside production stdout gets the human readable console encoding.
// The returned close func flushes the logger and closes the log file.
func NewLogger(cfg LoggerConfig) (*zap.Logger, func() error, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, nil, err
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	stdoutEnc := zapcore.NewJSONEncoder(encCfg)
	if !cfg.Production {
		devCfg := zap.NewDevelopmentEncoderConfig()
		devCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		stdoutEnc = zapcore.NewConsoleEncoder(devCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(stdoutEnc, zapcore.Lock(consoleSyncer{os.Stdout}), level),
	}

	var rotator *lumberjack.Logger
	if cfg.File != "" {
		rotator = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 50),
			MaxBackups: orDefault(cfg.MaxBackups, 5),
			MaxAge:     orDefault(cfg.MaxAgeDays, 28),
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(rotator), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	closeFn := func() error {
		err := logger.Sync()
		if rotator != nil {
			err = errors.Join(err, rotator.Close())
		}
		return err
	}
	return logger, closeFn, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
