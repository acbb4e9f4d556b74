package debug_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/debug"
)

func TestSplitFuncName(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantPkg  string
		wantFunc string
	}{
		{"function", "github.com/3fn/app/pkg/engine.New", "github.com/3fn/app/pkg/engine", "New"},
		{"method", "github.com/3fn/app/pkg/engine.(*Engine).register", "github.com/3fn/app/pkg/engine", "(*Engine).register"},
		{"closure", "main.main.func1", "main", "main.func1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg, fn := debug.SplitFuncName(tt.in)
			assert.Equal(t, tt.wantPkg, pkg)
			assert.Equal(t, tt.wantFunc, fn)
		})
	}
}

func TestFormatCaller(t *testing.T) {
	assert.Equal(t, "github.com/3fn/app/pkg/engine:engine.go:42",
		debug.FormatCaller("github.com/3fn/app/pkg/engine", "/src/pkg/engine/engine.go", 42, false))
}

func TestParseLevel(t *testing.T) {
	lvl, err := debug.ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, lvl)

	lvl, err = debug.ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, lvl)

	_, err = debug.ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := debug.NewLogger(&buf, debug.Options{Level: zerolog.InfoLevel, Caller: true})
	logger = logger.Hook(debug.CustomTimeHook{Now: func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 6e6, time.UTC) }})

	logger.Debug().Msg("dropped")
	logger.Info().Str("token", "space100").Msg("token registered")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "token registered", line["message"])
	assert.Equal(t, "space100", line["token"])
	assert.Equal(t, "2026-01-02T03:04:05.006Z", line["time"])
	assert.Contains(t, line["caller"], "debug_test.go:")
}
