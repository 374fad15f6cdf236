package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("trace")
	require.NoError(t, err)
	require.Equal(t, LevelTrace, lvl)

	lvl, err = ParseLevel("Warning")
	require.NoError(t, err)
	require.Equal(t, LevelWarn, lvl)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestModuleFiltering(t *testing.T) {
	prev := Root()
	defer SetDefault(prev)

	var buf bytes.Buffer
	SetDefault(NewLogger(NewTerminalHandlerWithLevel(&buf, LevelTrace)))

	DisableModule(WitnessMonitoring)
	Debug(WitnessMonitoring, "hidden")
	require.Empty(t, buf.String())

	EnableModule(WitnessMonitoring)
	defer DisableModule(WitnessMonitoring)
	Debug(WitnessMonitoring, "shown", "pc", 4)
	require.Contains(t, buf.String(), "shown")
	require.Contains(t, buf.String(), "module=witness")
	require.Contains(t, buf.String(), "level=debug")
	require.True(t, DebugEnabled(WitnessMonitoring))

	// Info is never filtered by module.
	buf.Reset()
	Info(KernelMonitoring, "always")
	require.Contains(t, buf.String(), "always")
}

func TestRecordLogs(t *testing.T) {
	prev := Root()
	defer SetDefault(prev)
	SetDefault(NewLogger(JSONHandlerWithLevel(&bytes.Buffer{}, LevelInfo)))

	RecordLogs()
	Warn(GenerationMonitoring, "first", "cycle", 1)
	Error(GenerationMonitoring, "second")
	out, err := GetRecordedLogs()
	require.NoError(t, err)

	var recs []map[string]any
	require.NoError(t, json.Unmarshal(out, &recs))
	require.Len(t, recs, 2)
	require.Equal(t, "first", recs[0]["msg"])
	require.Equal(t, "warn", recs[0]["level"])

	// recording stops after retrieval
	Warn(GenerationMonitoring, "third")
	out, err = GetRecordedLogs()
	require.NoError(t, err)
	require.JSONEq(t, "[]", string(out))
}
