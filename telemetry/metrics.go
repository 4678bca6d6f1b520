// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Ingest counters
	ChunksReceived  prometheus.Counter
	PongsSent       prometheus.Counter
	RecordsAppended prometheus.Counter
	DecodeSkips     prometheus.Counter
	AppendErrors    prometheus.Counter

	// Parse counters
	RecordsParsed  prometheus.Counter
	RecordsDropped prometheus.Counter

	// Import counters
	RowsImported    prometheus.Counter
	RowInsertErrors prometheus.Counter

	// Gauges
	LastAppendGauge prometheus.Gauge // unix seconds of the last successful append
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		ChunksReceived = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_chunks_received_total", Help: "Number of raw chunks read from the chat connection"})
		PongsSent = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_pongs_sent_total", Help: "Number of PONG replies sent to liveness probes"})
		RecordsAppended = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_records_appended_total", Help: "Number of records appended to the chat log"})
		DecodeSkips = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_decode_skips_total", Help: "Number of chunks skipped for invalid UTF-8"})
		AppendErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_append_errors_total", Help: "Number of failed chat log appends"})
		RecordsParsed = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_records_parsed_total", Help: "Number of log records parsed into messages"})
		RecordsDropped = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_records_dropped_total", Help: "Number of log records dropped as malformed"})
		RowsImported = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_rows_imported_total", Help: "Number of parsed messages inserted into Postgres"})
		RowInsertErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_row_insert_errors_total", Help: "Number of failed message inserts"})
		LastAppendGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "chat_last_append_timestamp_seconds", Help: "Unix time of the last successful chat log append"})
	})
}

// Counter helpers are nil-guarded so packages can record metrics without
// caring whether Init ran (e.g., in tests).

func IncChunksReceived() {
	if ChunksReceived != nil {
		ChunksReceived.Inc()
	}
}

func IncPongsSent() {
	if PongsSent != nil {
		PongsSent.Inc()
	}
}

func IncRecordsAppended() {
	if RecordsAppended != nil {
		RecordsAppended.Inc()
	}
	if LastAppendGauge != nil {
		LastAppendGauge.Set(float64(time.Now().Unix()))
	}
}

func IncDecodeSkips() {
	if DecodeSkips != nil {
		DecodeSkips.Inc()
	}
}

func IncAppendErrors() {
	if AppendErrors != nil {
		AppendErrors.Inc()
	}
}

func IncRecordsParsed() {
	if RecordsParsed != nil {
		RecordsParsed.Inc()
	}
}

func IncRecordsDropped() {
	if RecordsDropped != nil {
		RecordsDropped.Inc()
	}
}

func IncRowsImported() {
	if RowsImported != nil {
		RowsImported.Inc()
	}
}

func IncRowInsertErrors() {
	if RowInsertErrors != nil {
		RowInsertErrors.Inc()
	}
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
