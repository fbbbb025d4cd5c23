package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixAndKey(t *testing.T) {
	c := New().Prefix("PARTICLE_TRACKER_").Prefix("LOG_")
	assert.Equal(t, "PARTICLE_TRACKER_LOG_LEVEL", c.key("LEVEL"))
}

func TestMayHelpers(t *testing.T) {
	c := New().Prefix("PT_TEST_")
	t.Setenv("PT_TEST_NAME", "  janus ")
	t.Setenv("PT_TEST_N", " 12 ")
	t.Setenv("PT_TEST_BAD_N", "x")
	t.Setenv("PT_TEST_F", "0.25")
	t.Setenv("PT_TEST_B", "true")
	t.Setenv("PT_TEST_BAD_B", "maybe")

	assert.Equal(t, "janus", c.MayString("NAME", "def"))
	assert.Equal(t, "def", c.MayString("MISSING", "def"))
	assert.Equal(t, 12, c.MayInt("N", 3))
	assert.Equal(t, 3, c.MayInt("BAD_N", 3))
	assert.InDelta(t, 0.25, c.MayFloat64("F", 1), 1e-12)
	assert.InDelta(t, 1.0, c.MayFloat64("MISSING", 1), 1e-12)
	assert.True(t, c.MayBool("B", false))
	assert.False(t, c.MayBool("BAD_B", false))
}

func TestLoad(t *testing.T) {
	t.Setenv("PARTICLE_TRACKER_DETECTOR", "janus")
	t.Setenv("PARTICLE_TRACKER_CACHE_FRAMES", "8")

	app := Load()
	assert.Equal(t, "janus", app.DefaultDetector)
	assert.Equal(t, 8, app.CacheFrames)
	assert.Equal(t, "info", app.LogLevel)
	assert.Equal(t, "#ff3030", app.OverlayColor)
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("missing file is not an error", func(t *testing.T) {
		require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("loads variables", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("PT_ENVFILE_VALUE=from-file\n"), 0o600))
		t.Cleanup(func() { os.Unsetenv("PT_ENVFILE_VALUE") })

		require.NoError(t, LoadEnvFile(path))
		assert.Equal(t, "from-file", New().MayString("PT_ENVFILE_VALUE", ""))
	})
}
