package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level      string
	Output     string // console, file or both
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	mu   sync.RWMutex
	base *zap.Logger
)

// Init builds the process logger. It is safe to call more than once; the
// last call wins.
func Init(opts Options) *zap.Logger {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
		level.SetLevel(zap.InfoLevel)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encCfg)

	var cores []zapcore.Core
	output := strings.ToLower(opts.Output)
	if output == "file" || output == "both" {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotating), level))
	}
	if output == "console" || output == "both" || len(cores) == 0 {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller())

	mu.Lock()
	base = l
	mu.Unlock()
	return l
}

// L returns the process logger, falling back to a development logger when
// Init has not been called (tests, tools).
func L() *zap.Logger {
	mu.RLock()
	l := base
	mu.RUnlock()
	if l != nil {
		return l
	}
	dev, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return dev
}

// Named returns a sugared logger tagged with a component name, e.g. "CYCLE".
func Named(component string) *zap.SugaredLogger {
	return L().Named(component).Sugar()
}

func Sync() {
	_ = L().Sync()
}
