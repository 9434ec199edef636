package scheduler

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// cronLogger reports cron events through zap. cron emits everything that is
// not a panic through Info, so those messages go out at level.
type cronLogger struct {
	logger *zap.SugaredLogger
	level  zapcore.Level
}

func newCronLogger(logger *zap.Logger, level zapcore.Level) cron.Logger {
	return cronLogger{logger: logger.Sugar(), level: level}
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if l.level == zapcore.DebugLevel {
		l.logger.Debugw(msg, keysAndValues...)
		return
	}
	l.logger.Infow(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
