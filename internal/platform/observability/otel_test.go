package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestInit_TagsLogsWithService(t *testing.T) {
	var buf bytes.Buffer
	instruments, shutdown, err := Init(context.Background(), "storefront-test",
		WithLogOutput(&buf),
		WithEnvironment("test"),
		WithOTLPEndpoint("127.0.0.1:1"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	instruments.Logger.Info("hello")
	assert.Contains(t, buf.String(), `"service":"storefront-test"`)
	assert.NotNil(t, instruments.Tracer("t"))
	assert.NotNil(t, instruments.Meter("m"))
}

func TestNoop_IsUsableWithoutInit(t *testing.T) {
	i := Noop()
	_, span := i.Tracer("x").Start(context.Background(), "op")
	span.End()
	assert.False(t, span.SpanContext().IsValid())

	var nilInstruments *Instruments
	assert.NotNil(t, nilInstruments.Meter("m"))
}
