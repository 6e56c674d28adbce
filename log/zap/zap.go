package zaplog

import (
	"go.uber.org/zap"

	"github.com/unkn0wn-root/fetchcache"
)

var _ fetchcache.Logger = Logger{}

type Logger struct{ L *zap.Logger }

// New names the logger "fetchcache"; nil falls back to a no-op logger.
func New(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return Logger{L: l.Named("fetchcache")}
}

func (z Logger) Debug(msg string, f fetchcache.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f fetchcache.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f fetchcache.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f fetchcache.Fields) { z.L.Error(msg, fields(f)...) }

func fields(f fetchcache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		out = append(out, zap.Any(k, v))
	}
	return out
}
