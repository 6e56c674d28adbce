package logruslog

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/fetchcache"
)

var _ fetchcache.Logger = Logger{}

type Logger struct{ E *logrus.Entry }

// New tags every record with component=fetchcache.
func New(l *logrus.Logger) Logger {
	return Logger{E: l.WithField("component", "fetchcache")}
}

func (l Logger) Debug(msg string, f fetchcache.Fields) { l.E.WithFields(logrus.Fields(f)).Debug(msg) }
func (l Logger) Info(msg string, f fetchcache.Fields)  { l.E.WithFields(logrus.Fields(f)).Info(msg) }
func (l Logger) Warn(msg string, f fetchcache.Fields)  { l.E.WithFields(logrus.Fields(f)).Warn(msg) }
func (l Logger) Error(msg string, f fetchcache.Fields) { l.E.WithFields(logrus.Fields(f)).Error(msg) }
