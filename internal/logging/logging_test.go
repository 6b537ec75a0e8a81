package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-tender-client/internal/logging"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	l := logging.Component(logging.New("PROD", "debug", &buf), "session")
	l.Info().Str("state", "anonymous").Msg("restored")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "session", line["component"])
	require.Equal(t, "anonymous", line["state"])
	require.Equal(t, "restored", line["message"])
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := logging.New("PROD", "warn", &buf)
	l.Info().Msg("hidden")
	require.Zero(t, buf.Len())

	l.Warn().Msg("shown")
	require.Contains(t, buf.String(), "shown")
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := logging.New("PROD", "loud", &buf)
	l.Debug().Msg("hidden")
	require.Zero(t, buf.Len())
	l.Info().Msg("shown")
	require.Contains(t, buf.String(), "shown")
}
