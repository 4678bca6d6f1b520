package telemetry

import (
	"context"
	"testing"
)

func TestInitIdempotent(t *testing.T) {
	Init()
	Init() // second call must not re-register (panics on duplicate otherwise)
	if ChunksReceived == nil || RecordsParsed == nil || LastAppendGauge == nil {
		t.Fatalf("expected metrics registered after Init")
	}
}

func TestCounterHelpers(t *testing.T) {
	Init()
	// Helpers must not panic and must be callable repeatedly.
	IncChunksReceived()
	IncPongsSent()
	IncRecordsAppended()
	IncDecodeSkips()
	IncAppendErrors()
	IncRecordsParsed()
	IncRecordsDropped()
	IncRowsImported()
	IncRowInsertErrors()
}

func TestCorrelation(t *testing.T) {
	ctx := context.Background()
	if got := GetCorrelation(ctx); got != "" {
		t.Errorf("expected empty correlation on fresh context, got %q", got)
	}
	ctx = WithCorrelation(ctx, "abc-123")
	if got := GetCorrelation(ctx); got != "abc-123" {
		t.Errorf("correlation = %q, want abc-123", got)
	}
}

func TestLoggerWithCorr(t *testing.T) {
	ctx := WithCorrelation(context.Background(), "xyz")
	if LoggerWithCorr(ctx) == nil {
		t.Fatalf("expected logger")
	}
	if LoggerWithCorr(context.Background()) == nil {
		t.Fatalf("expected default logger without correlation")
	}
}
