// Package logger 提供全局结构化日志（log/slog），可选写入滚动日志文件。
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	defaultLogger *slog.Logger
	rotator       *lumberjack.Logger
	mu            sync.RWMutex
)

func init() {
	defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// Options 配置日志输出。
type Options struct {
	Debug  bool      // 输出 debug 级别
	Quiet  bool      // 只输出 error
	JSON   bool      // JSON 格式
	Output io.Writer // 默认 stderr
	File   string    // 非空时额外写入滚动日志文件
}

// Init 按 opts 重建全局 logger。重复调用会关闭上一次打开的日志文件。
func Init(opts Options) {
	mu.Lock()
	defer mu.Unlock()

	closeRotatorLocked()

	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	if opts.Quiet {
		level = slog.LevelError
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}
	if opts.File != "" {
		rotator = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28, // 天
		}
		output = io.MultiWriter(output, rotator)
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(output, handlerOpts)
	}
	defaultLogger = slog.New(handler)
}

// Close 关闭滚动日志文件（未启用时为空操作）。
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return closeRotatorLocked()
}

func closeRotatorLocked() error {
	if rotator == nil {
		return nil
	}
	err := rotator.Close()
	rotator = nil
	return err
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

func Debug(msg string, args ...any) { get().Debug(msg, args...) }
func Info(msg string, args ...any)  { get().Info(msg, args...) }
func Warn(msg string, args ...any)  { get().Warn(msg, args...) }
func Error(msg string, args ...any) { get().Error(msg, args...) }

// With 返回附带固定属性的 logger。
func With(args ...any) *slog.Logger { return get().With(args...) }

func DebugContext(ctx context.Context, msg string, args ...any) {
	get().DebugContext(ctx, msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	get().InfoContext(ctx, msg, args...)
}
