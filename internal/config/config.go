// Package config reads application settings from environment variables.
//
// It has no logging dependency so that the logger itself can be configured
// from it; invalid values silently fall back to the default.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Conf is a namespaced view over environment variables
type Conf struct{ prefix string }

// New returns a Conf with no prefix
func New() Conf { return Conf{} }

// Prefix returns a child Conf with p appended to the prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) key(k string) string { return c.prefix + k }

func (c Conf) lookup(k string) string {
	return strings.TrimSpace(os.Getenv(c.key(k)))
}

// MayString returns the value or def if missing/empty
func (c Conf) MayString(key, def string) string {
	if v := c.lookup(key); v != "" {
		return v
	}
	return def
}

// MayInt returns the value or def if missing, empty or invalid
func (c Conf) MayInt(key string, def int) int {
	if v, err := strconv.Atoi(c.lookup(key)); err == nil {
		return v
	}
	return def
}

// MayFloat64 returns the value or def if missing, empty or invalid
func (c Conf) MayFloat64(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(c.lookup(key), 64); err == nil {
		return v
	}
	return def
}

// MayBool returns the value or def if missing, empty or invalid
func (c Conf) MayBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(c.lookup(key)); err == nil {
		return v
	}
	return def
}

// App holds the settings the server and batch command read at startup.
type App struct {
	LogLevel        string
	LogFormat       string
	DefaultDetector string
	// CacheFrames bounds how many decoded frames the server keeps; 0 = unbounded
	CacheFrames int
	// OverlayColor is the default hex colour for rendered overlays
	OverlayColor string
}

// LoadEnvFile loads a .env file into the process environment if it exists.
// Variables already set take precedence.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// Load reads PARTICLE_TRACKER_* variables into App
func Load() App {
	c := New().Prefix("PARTICLE_TRACKER_")
	return App{
		LogLevel:        c.MayString("LOG_LEVEL", "info"),
		LogFormat:       c.MayString("LOG_FORMAT", "console"),
		DefaultDetector: c.MayString("DETECTOR", "connected-component"),
		CacheFrames:     c.MayInt("CACHE_FRAMES", 64),
		OverlayColor:    c.MayString("OVERLAY_COLOR", "#ff3030"),
	}
}
