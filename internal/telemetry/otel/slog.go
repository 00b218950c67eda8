package otel

import (
	"context"
	"log/slog"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const instrumentationName = "streamline/backend"

// NewSlogHandler returns a slog.Handler that emits each record as an OTel log
// record through provider. If provider is nil, the handler is disabled.
func NewSlogHandler(provider *sdklog.LoggerProvider, level slog.Leveler) slog.Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	h := &slogHandler{level: level}
	if provider != nil {
		h.logger = provider.Logger(instrumentationName)
	}
	return h
}

type slogHandler struct {
	logger otellog.Logger
	level  slog.Leveler
	attrs  []otellog.KeyValue
	prefix string
}

func (h *slogHandler) Enabled(_ context.Context, l slog.Level) bool {
	return h.logger != nil && l >= h.level.Level()
}

func (h *slogHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.logger == nil {
		return nil
	}
	var rec otellog.Record
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	rec.SetTimestamp(ts)
	rec.SetObservedTimestamp(time.Now())
	rec.SetSeverity(severity(r.Level))
	rec.SetSeverityText(r.Level.String())
	rec.SetBody(otellog.StringValue(r.Message))
	rec.AddAttributes(h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		if kv, ok := convertAttr(h.prefix, a); ok {
			rec.AddAttributes(kv)
		}
		return true
	})
	h.logger.Emit(ctx, rec)
	return nil
}

func (h *slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]otellog.KeyValue(nil), h.attrs...)
	for _, a := range attrs {
		if kv, ok := convertAttr(h.prefix, a); ok {
			next.attrs = append(next.attrs, kv)
		}
	}
	return &next
}

func (h *slogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func severity(l slog.Level) otellog.Severity {
	switch {
	case l >= slog.LevelError:
		return otellog.SeverityError
	case l >= slog.LevelWarn:
		return otellog.SeverityWarn
	case l >= slog.LevelInfo:
		return otellog.SeverityInfo
	default:
		return otellog.SeverityDebug
	}
}

// convertAttr flattens groups into dotted keys. Empty attrs are dropped.
func convertAttr(prefix string, a slog.Attr) (otellog.KeyValue, bool) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return otellog.KeyValue{}, false
	}
	key := prefix + a.Key
	v := a.Value
	switch v.Kind() {
	case slog.KindString:
		return otellog.String(key, v.String()), true
	case slog.KindInt64:
		return otellog.Int64(key, v.Int64()), true
	case slog.KindUint64:
		return otellog.Int64(key, int64(v.Uint64())), true
	case slog.KindFloat64:
		return otellog.Float64(key, v.Float64()), true
	case slog.KindBool:
		return otellog.Bool(key, v.Bool()), true
	case slog.KindDuration:
		return otellog.Int64(key, v.Duration().Milliseconds()), true
	case slog.KindTime:
		return otellog.String(key, v.Time().UTC().Format(time.RFC3339Nano)), true
	case slog.KindGroup:
		var kvs []otellog.KeyValue
		for _, ga := range v.Group() {
			if kv, ok := convertAttr("", ga); ok {
				kvs = append(kvs, kv)
			}
		}
		if len(kvs) == 0 {
			return otellog.KeyValue{}, false
		}
		return otellog.Map(key, kvs...), true
	default:
		return otellog.String(key, v.String()), true
	}
}
