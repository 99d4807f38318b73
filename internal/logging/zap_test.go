package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZapLogger_WritesJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(FormatZap, &buf)
	require.NoError(t, err)

	log.With("attempt_id", "a-1").Warn(context.Background(), "liveness failed", "frames", 300)

	line := strings.TrimSpace(buf.String())
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &rec))

	assert.Equal(t, "warn", rec["level"])
	assert.Equal(t, "liveness failed", rec["msg"])
	assert.Equal(t, "a-1", rec["attempt_id"])
	assert.EqualValues(t, 300, rec["frames"])
	assert.Contains(t, rec, "timestamp")
}

func TestNew_Formats(t *testing.T) {
	var buf bytes.Buffer

	for _, f := range []string{"", FormatJSON, FormatText, FormatZap} {
		l, err := New(f, &buf)
		require.NoError(t, err, f)
		require.NotNil(t, l)
	}

	_, err := New("xml", &buf)
	require.Error(t, err)
}

func TestNop_DiscardsAndChains(t *testing.T) {
	l := Nop().With("k", "v")
	l.Debug(context.Background(), "x")
	l.Info(context.Background(), "x")
	l.Warn(context.Background(), "x")
	l.Error(context.Background(), "x")
}

func TestZapLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(FormatZap, &buf)
	require.NoError(t, err)

	ctx := ContextWith(context.Background(), "attempt_id", "a-9")
	log.Info(ctx, "access attempt", "status", "SUCCESS")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "a-9", rec["attempt_id"])
	assert.Equal(t, "SUCCESS", rec["status"])
}
