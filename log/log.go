// Package log wraps logrus behind the context-first, variadic key/value
// call signature used throughout this codebase.
package log

import (
	"context"

	"github.com/sirupsen/logrus"
)

type ctxKey int

const fieldsKey ctxKey = 0

var root = logrus.New()

// SetLevel adjusts the root logger's minimum severity.
func SetLevel(level logrus.Level) {
	root.SetLevel(level)
}

// NewContext attaches key/value fields to ctx; subsequent log calls made
// with the returned context carry them automatically.
func NewContext(ctx context.Context, kv ...any) context.Context {
	fields := fieldsFrom(ctx)
	merged := fields.Clone()
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		merged[key] = kv[i+1]
	}
	return context.WithValue(ctx, fieldsKey, merged)
}

func fieldsFrom(ctx context.Context) logrus.Fields {
	if ctx == nil {
		return logrus.Fields{}
	}
	if f, ok := ctx.Value(fieldsKey).(logrus.Fields); ok {
		return f
	}
	return logrus.Fields{}
}

func entry(ctx context.Context, kv []any) *logrus.Entry {
	fields := fieldsFrom(ctx).Clone()
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	return root.WithFields(fields)
}

// Debug logs at debug severity.
func Debug(ctx context.Context, msg string, kv ...any) {
	entry(ctx, kv).Debug(msg)
}

// Info logs at info severity.
func Info(ctx context.Context, msg string, kv ...any) {
	entry(ctx, kv).Info(msg)
}

// Warn logs at warning severity. If err is non-nil it is attached as a field.
func Warn(ctx context.Context, msg string, err error, kv ...any) {
	e := entry(ctx, kv)
	if err != nil {
		e = e.WithError(err)
	}
	e.Warn(msg)
}

// Error logs at error severity. If err is non-nil it is attached as a field.
func Error(ctx context.Context, msg string, err error, kv ...any) {
	e := entry(ctx, kv)
	if err != nil {
		e = e.WithError(err)
	}
	e.Error(msg)
}

// Traffic is the sub-logger used for raw SSDP datagram tracing, mirroring
// the source's separate _LOGGER_TRAFFIC_UPNP logger so wire-level noise can
// be filtered independently of protocol-level events.
var Traffic = root.WithField("component", "ssdp-traffic")

// Access is the sub-logger used for HTTP access logging (spec.md §4.I),
// kept distinct from Traffic and the unadorned root logger so request
// noise can be filtered independently of SSDP wire traffic.
var Access = root.WithField("component", "http-access")
