package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "eastus", cfg.Speech.Region)
	require.Equal(t, "info", cfg.Logging.Level)

	require.False(t, cfg.SpeechEnabled())
	require.False(t, cfg.VQAEnabled())
	require.False(t, cfg.RedisEnabled())
	require.True(t, cfg.StorageEnabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SEESOUND_SPEECH_KEY", "test-key")
	t.Setenv("SEESOUND_SPEECH_REGION", "westeurope")
	t.Setenv("SEESOUND_SERVER_PORT", "9000")
	t.Setenv("SEESOUND_STORAGE_RETENTIONDAYS", "30")

	cfg, err := Load()
	require.NoError(t, err)

	require.True(t, cfg.SpeechEnabled())
	require.Equal(t, "westeurope", cfg.Speech.Region)
	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, 30, cfg.Storage.RetentionDays)
}
