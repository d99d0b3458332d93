package logging

import (
	"strings"

	"go.uber.org/zap"
)

// BadgerLogger 实现 badger.Logger 接口
type BadgerLogger struct {
	sugar *zap.SugaredLogger
}

// NewBadgerLogger 将 badger 内部日志桥接到 zap
func NewBadgerLogger(l *zap.Logger) *BadgerLogger {
	return &BadgerLogger{sugar: l.Named("badger").WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (b *BadgerLogger) Errorf(format string, args ...interface{}) {
	b.sugar.Errorf(strings.TrimSpace(format), args...)
}

func (b *BadgerLogger) Warningf(format string, args ...interface{}) {
	b.sugar.Warnf(strings.TrimSpace(format), args...)
}

func (b *BadgerLogger) Infof(format string, args ...interface{}) {
	b.sugar.Infof(strings.TrimSpace(format), args...)
}

func (b *BadgerLogger) Debugf(format string, args ...interface{}) {
	b.sugar.Debugf(strings.TrimSpace(format), args...)
}
