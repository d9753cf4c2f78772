package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "debug").With(String("comp", "test"))
	log.Info("hello", Int("n", 3), Err(errors.New("boom")))

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "hello", m["message"])
	assert.Equal(t, "test", m["comp"])
	assert.EqualValues(t, 3, m["n"])
	assert.Equal(t, "boom", m["err"])
}

func TestZeroLoggerIsNop(t *testing.T) {
	var l Logger
	assert.True(t, l.IsZero())
	l.Info("dropped")
	assert.False(t, Nop().IsZero())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" debug ", zerolog.InfoLevel))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning", zerolog.InfoLevel))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus", zerolog.InfoLevel))
}

func TestFormatOpsLine(t *testing.T) {
	got := formatOpsLine([]byte(`{"level":"warn","time":"x","message":"delivery failed","comp":"announce","err":"eof"}`))
	assert.Equal(t, "[WARN] delivery failed\n- comp=announce\n- err=eof", got)

	assert.Equal(t, "not json", formatOpsLine([]byte("  not json \n")))
}
