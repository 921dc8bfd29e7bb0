package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.False(t, cfg.Enabled, "tracing is opt-in")
	require.Equal(t, "file", cfg.Exporter)
	require.Equal(t, 1.0, cfg.SampleRate)
	require.Equal(t, "catalog", cfg.ServiceName)
}

func TestNewProvider_DisabledIsNoop(t *testing.T) {
	p, err := NewProvider(Config{})
	require.NoError(t, err)
	require.False(t, p.Enabled())

	_, span := p.Tracer().Start(context.Background(), "store.Fetch")
	require.False(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_Errors(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "file"})
	require.ErrorContains(t, err, "file_path")

	_, err = NewProvider(Config{Enabled: true, Exporter: "zipkin"})
	require.ErrorContains(t, err, "unsupported exporter")
}

func TestNewProvider_FileExporterWritesOnShutdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "traces.jsonl")
	p, err := NewProvider(Config{Enabled: true, Exporter: "file", FilePath: path})
	require.NoError(t, err)
	require.True(t, p.Enabled())

	_, span := p.Tracer().Start(context.Background(), SpanPrefixStore+"Save")
	span.SetAttributes(attribute.String(AttrKind, "items"), attribute.Int(AttrRows, 3))
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))

	records := readRecords(t, path)
	require.Len(t, records, 1)
	require.Equal(t, "store.Save", records[0].Name)
	require.Equal(t, "items", records[0].Attributes[AttrKind])
}

func TestFileExporter_SpanRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spans.jsonl")
	exp, err := NewFileExporter(path)
	require.NoError(t, err)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	tracer := tp.Tracer("test")

	ctx, parent := tracer.Start(context.Background(), "store.Save")
	_, child := tracer.Start(ctx, "store.CheckUnique")
	child.AddEvent("conflict")
	child.SetStatus(codes.Error, "duplicate")
	child.End()
	parent.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	records := readRecords(t, path)
	require.Len(t, records, 2)
	require.Equal(t, "store.CheckUnique", records[0].Name)
	require.Equal(t, "ERROR", records[0].Status)
	require.Equal(t, "duplicate", records[0].StatusMsg)
	require.Equal(t, records[1].SpanID, records[0].ParentSpanID)
	require.Len(t, records[0].Events, 1)
	require.Equal(t, "INTERNAL", records[1].Kind)

	require.NoError(t, exp.ExportSpans(context.Background(), nil))
}

func readRecords(t *testing.T, path string) []SpanRecord {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []SpanRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r SpanRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		out = append(out, r)
	}
	require.NoError(t, sc.Err())
	return out
}
