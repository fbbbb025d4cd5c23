// Package logger provides the process-wide zerolog logger.
//
// Output goes to stderr by default: stdout is reserved for MCP protocol
// traffic.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/ironsheep/particle-tracker-mcp/internal/config"
)

// Options configures the root logger
type Options struct {
	Level      string
	Format     string
	Component  string
	Writer     io.Writer
	WithCaller bool
}

// FromEnv reads PARTICLE_TRACKER_LOG_* variables
func FromEnv() Options {
	c := config.New().Prefix("PARTICLE_TRACKER_LOG_")
	return Options{
		Level:      strings.ToLower(c.MayString("LEVEL", "info")),
		Format:     strings.ToLower(c.MayString("FORMAT", "console")),
		Component:  c.MayString("COMPONENT", ""),
		WithCaller: c.MayBool("CALLER", false),
	}
}

// Logger is the project-wide logging type
type Logger = zerolog.Logger

var (
	once   sync.Once
	root   atomic.Pointer[zerolog.Logger]
	inited atomic.Bool
)

// Get returns the root logger, initializing it from the environment on first use
func Get() *Logger {
	if !inited.Load() {
		Init(FromEnv())
	}
	return root.Load()
}

// Init builds the root logger. Only the first call has an effect.
func Init(opt Options) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		l := New(opt)
		root.Store(&l)
		inited.Store(true)
	})
}

// New builds a standalone logger from opt without touching the root
func New(opt Options) zerolog.Logger {
	var w io.Writer = os.Stderr
	if opt.Writer != nil {
		w = opt.Writer
	}
	if opt.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: opt.Writer != nil}
	}

	ctx := zerolog.New(w).Level(ParseLevel(opt.Level)).With().Timestamp()
	if opt.Component != "" {
		ctx = ctx.Str("component", opt.Component)
	}
	l := ctx.Logger()
	if opt.WithCaller {
		l = l.With().Caller().Logger()
	}
	return l
}

// ParseLevel maps a level name to a zerolog level; unknown names mean info
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Named returns a child of the root logger with a component field
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	l := Get().With().Str("component", component).Logger()
	return &l
}
