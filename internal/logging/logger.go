// Package logging adapts zap to the Nakama runtime.Logger interface so the
// standalone binaries log through the same interface as the Nakama plugin.
package logging

import (
	"fmt"
	"log"

	"github.com/heroiclabs/nakama-common/runtime"
	"go.uber.org/zap"
)

// ZapLogger implements runtime.Logger on top of a zap.Logger.
type ZapLogger struct {
	logger *zap.Logger
	fields map[string]interface{}
}

var _ runtime.Logger = (*ZapLogger)(nil)

// NewZapLogger wraps l. A nil l yields a no-op logger.
func NewZapLogger(l *zap.Logger) *ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapLogger{logger: l, fields: map[string]interface{}{}}
}

// Nop returns a logger that discards everything.
func Nop() runtime.Logger {
	return NewZapLogger(zap.NewNop())
}

// New builds a production or development zap logger depending on dev.
func New(dev bool) (*ZapLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if dev {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return NewZapLogger(l), nil
}

func (z *ZapLogger) Debug(format string, v ...interface{}) {
	z.logger.Debug(fmt.Sprintf(format, v...))
}

func (z *ZapLogger) Info(format string, v ...interface{}) {
	z.logger.Info(fmt.Sprintf(format, v...))
}

func (z *ZapLogger) Warn(format string, v ...interface{}) {
	z.logger.Warn(fmt.Sprintf(format, v...))
}

func (z *ZapLogger) Error(format string, v ...interface{}) {
	z.logger.Error(fmt.Sprintf(format, v...))
}

func (z *ZapLogger) WithField(key string, v interface{}) runtime.Logger {
	return z.WithFields(map[string]interface{}{key: v})
}

func (z *ZapLogger) WithFields(fields map[string]interface{}) runtime.Logger {
	merged := make(map[string]interface{}, len(z.fields)+len(fields))
	zf := make([]zap.Field, 0, len(fields))
	for k, v := range z.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
		zf = append(zf, zap.Any(k, v))
	}
	return &ZapLogger{logger: z.logger.With(zf...), fields: merged}
}

func (z *ZapLogger) Fields() map[string]interface{} {
	out := make(map[string]interface{}, len(z.fields))
	for k, v := range z.fields {
		out[k] = v
	}
	return out
}

// Sync flushes buffered entries.
func (z *ZapLogger) Sync() error {
	return z.logger.Sync()
}

// StdLog returns a standard library logger writing to z at info level, for
// packages that only accept a *log.Logger or an io.Writer.
func (z *ZapLogger) StdLog() *log.Logger {
	return zap.NewStdLog(z.logger)
}
