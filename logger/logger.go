// Package logger 基于 zerolog 的 client.Logger 实现
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const (
	Production  = "production"
	Development = "development"
)

// Logger 键值对风格的结构化日志
type Logger struct {
	zl zerolog.Logger
}

// New 创建日志；development 使用控制台格式，其余环境输出 JSON
func New(w io.Writer, environment string, debug bool) *Logger {
	if w == nil {
		w = os.Stderr
	}
	if environment == Development {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return &Logger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// Nop 丢弃所有输出
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With 返回附带固定字段的子日志
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{zl: l.zl.With().Fields(args).Logger()}
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.zl.Debug().Fields(args).Msg(msg)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.zl.Info().Fields(args).Msg(msg)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.zl.Warn().Fields(args).Msg(msg)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.zl.Error().Fields(args).Msg(msg)
}
