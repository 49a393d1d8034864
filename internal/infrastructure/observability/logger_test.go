package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestInitLogger_FiltersAndTags(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(InitLogger("warn", &buf), "gateway")

	logger.Info().Msg("dropped")
	logger.Warn().Str("payment_id", "p-1").Msg("kept")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var event map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &event))
	assert.Equal(t, "kept", event["message"])
	assert.Equal(t, "gateway", event["component"])
	assert.Equal(t, "p-1", event["payment_id"])
	assert.Contains(t, event, "time")
}

func TestInitConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := InitConsoleLogger("info", &buf)

	logger.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
}
