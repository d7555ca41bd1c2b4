package logger

import (
	"os"
	"path/filepath"
	"testing"

	"pathways_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func restoreLog(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })
}

func TestInitLoggerUsesLogSection(t *testing.T) {
	restoreLog(t)
	file := filepath.Join(t.TempDir(), "nested", "pathways.log")
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		Log:    config.LogConfig{Level: "warn", File: file, MaxSizeMB: 1},
	}
	require.NoError(t, InitLogger(cfg))
	assert.Equal(t, zapcore.WarnLevel, Log.Level(), "log.level wins over server.mode")

	Log.Info("dropped line")
	Log.Warn("kept line", zap.String("unit", "u1"))
	_ = Log.Sync()

	raw, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"kept line"`)
	assert.Contains(t, string(raw), `"unit":"u1"`)
	assert.NotContains(t, string(raw), "dropped line")
}

func TestResolveLevel(t *testing.T) {
	cases := map[string]struct {
		mode, level string
		want        zapcore.Level
	}{
		"debug mode":    {mode: "debug", want: zapcore.DebugLevel},
		"release mode":  {mode: "release", want: zapcore.InfoLevel},
		"explicit info": {mode: "debug", level: "info", want: zapcore.InfoLevel},
		"explicit err":  {mode: "release", level: "error", want: zapcore.ErrorLevel},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := resolveLevel(&config.Config{
				Server: config.ServerConfig{Mode: tc.mode},
				Log:    config.LogConfig{Level: tc.level},
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestInitLoggerRejectsUnknownLevel(t *testing.T) {
	restoreLog(t)
	before := Log
	err := InitLogger(&config.Config{Log: config.LogConfig{Level: "loud"}})
	assert.ErrorContains(t, err, "log.level")
	assert.Same(t, before, Log)
}
