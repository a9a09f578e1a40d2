package latmeas

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	l.WithEnsemble("one_site.nt8.U2.beta5.mu0").WithRunID("abc").Info("hello")
	out := buf.String()
	assert.Contains(t, out, "ensemble=one_site.nt8.U2.beta5.mu0")
	assert.Contains(t, out, "run_id=abc")
}

func TestLogFlush(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewTextHandler(&buf, nil))

	l.LogFlush("run.meas", 3, nil)
	require.Contains(t, buf.String(), "measurements flushed")

	buf.Reset()
	l.LogFlush("run.meas", 3, assert.AnError)
	assert.Contains(t, buf.String(), "flush failed")
}

func TestNoopLogger(t *testing.T) {
	// Must not panic and must not write anywhere visible.
	NoopLogger().Info("ignored")
}
