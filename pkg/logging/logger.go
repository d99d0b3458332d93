package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"shortlink-proxy/internal/config"
)

var (
	Logger      = zap.NewNop()                      // 全局 Logger 实例
	AtomicLevel = zap.NewAtomicLevelAt(zap.InfoLevel) // 全局共享日志级别
)

// InitLogger 按配置初始化全局 Logger：控制台 JSON 输出 + lumberjack 文件轮转
func InitLogger(cfg config.LogConfig) *zap.Logger {
	logMaxSize := cfg.MaxSize
	logMaxBackups := cfg.MaxBackups
	logMaxAge := cfg.MaxAge

	if logMaxSize <= 0 {
		logMaxSize = 10 // MB
	}
	if logMaxBackups <= 0 {
		logMaxBackups = 5
	}
	if logMaxAge <= 0 {
		logMaxAge = 7 // 天
	}

	// 解析日志级别（安全处理无效值）
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zap.InfoLevel
	}
	AtomicLevel = zap.NewAtomicLevelAt(level)

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.LowercaseLevelEncoder,
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.Format("2006/01/02 - 15:04:05"))
		},
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(os.Stdout),
			AtomicLevel,
		),
	}

	if cfg.Path != "" {
		// 确保日志目录存在，失败时退化为仅控制台输出
		if err := os.MkdirAll(filepath.Dir(cfg.Path), os.ModePerm); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to create log directory: %v\n", err)
		} else {
			lumberjackLogger := &lumberjack.Logger{
				Filename:   cfg.Path,
				MaxSize:    logMaxSize,    // 单位：MB
				MaxBackups: logMaxBackups, // 保留多少个备份文件
				MaxAge:     logMaxAge,     // 保留多少天
				Compress:   cfg.Compress,
				LocalTime:  true,
			}
			cores = append(cores, zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				zapcore.AddSync(lumberjackLogger),
				AtomicLevel,
			))
		}
	}

	Logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	zap.ReplaceGlobals(Logger)

	Logger.Info("InitLogger finished",
		zap.String("level", level.String()),
		zap.String("path", cfg.Path),
	)
	return Logger
}
