package main

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronLogger routes cron's logging through zap. Scheduler chatter goes to
// Debug; skipped runs are reported at Warn.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		l.logger.Warnw("scheduled smoke run skipped, previous run still in progress", keysAndValues...)
		return
	}
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}

// newScheduler returns a cron scheduler that never overlaps runs of the
// same job.
func newScheduler(logger *zap.Logger) *cron.Cron {
	cl := cronLogger{logger: logger.Named("cron").Sugar()}
	return cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
}
