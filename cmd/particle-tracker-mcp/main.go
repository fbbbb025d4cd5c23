package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/particle-tracker-mcp/internal/batch"
	"github.com/ironsheep/particle-tracker-mcp/internal/config"
	"github.com/ironsheep/particle-tracker-mcp/internal/imaging"
	"github.com/ironsheep/particle-tracker-mcp/internal/logger"
	"github.com/ironsheep/particle-tracker-mcp/internal/server"
	"github.com/ironsheep/particle-tracker-mcp/internal/tracker"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("particle-tracker-mcp - MCP server for particle tracking in microscopy frames")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  particle-tracker-mcp [options]              serve MCP over stdin/stdout")
	fmt.Println("  particle-tracker-mcp batch [flags] files... run a detector over a frame series")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (also read from ./.env):")
	fmt.Println("  PARTICLE_TRACKER_LOG_LEVEL=debug         Log level (trace, debug, info, warn, error)")
	fmt.Println("  PARTICLE_TRACKER_LOG_FORMAT=json         console or json")
	fmt.Println("  PARTICLE_TRACKER_DETECTOR=janus          Default detector")
	fmt.Println("  PARTICLE_TRACKER_CACHE_FRAMES=64         Decoded frames kept in memory (0 = unbounded)")
	fmt.Println("  PARTICLE_TRACKER_OVERLAY_COLOR=#ff3030   Default overlay colour")
	fmt.Println()
	fmt.Println("Logs go to stderr; stdout carries MCP protocol traffic.")
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("particle-tracker-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		}
	}

	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}
	app := config.Load()
	logger.Init(logger.Options{Level: app.LogLevel, Format: app.LogFormat})
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "batch" {
		if err := runBatch(ctx, app, os.Args[2:]); err != nil {
			log.Error().Err(err).Msg("batch failed")
			os.Exit(1)
		}
		return
	}

	server.Version = Version
	log.Debug().Str("version", Version).Str("built", BuildTime).Str("commit", GitCommit).Msg("particle tracker MCP server starting")

	srv := server.New(app, *logger.Named("server"))
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func runBatch(ctx context.Context, app config.App, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	var (
		detector = fs.String("detector", app.DefaultDetector, "detector kind")
		cfgJSON  = fs.String("config", "", "detector options as a JSON object")
		out      = fs.String("out", "features.csv", "CSV output path")
		binning  = fs.Int("binning", 0, "software binning factor")
		median   = fs.Int("median", 0, "median filter size")
		subtract = fs.Bool("subtract-mean", false, "subtract the mean frame of the series")
		overlays = fs.String("overlays", "", "directory for per-frame overlay PNGs")
		protocol = fs.String("protocol", "", "protocol file copied into the CSV header")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("no input frames given")
	}

	kind, err := tracker.ParseKind(*detector)
	if err != nil {
		return err
	}
	cfg, err := tracker.DecodeConfig(kind, json.RawMessage(*cfgJSON))
	if err != nil {
		return err
	}

	log := logger.Named("batch")
	registry := tracker.NewRegistry(*log)
	defer func() {
		if err := registry.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to release detectors")
		}
	}()
	runner, err := batch.NewRunner(registry, *log, batch.Options{
		Detector: kind,
		Config:   cfg,
		Preprocess: imaging.Preprocess{
			Binning:      *binning,
			Median:       *median,
			SubtractMean: *subtract,
		},
		OverlayDir: *overlays,
		Protocol:   *protocol,
	})
	if err != nil {
		return err
	}
	runner.OnProgress(func(done, total int) {
		log.Info().Int("done", done).Int("total", total).Msg("progress")
	})

	report, err := runner.Run(ctx, batch.Files{Paths: fs.Args()})
	if err != nil {
		return err
	}
	if err := batch.WriteCSVFile(*out, report); err != nil {
		return err
	}
	log.Info().
		Str("run_id", report.Metadata.RunID).
		Str("output", *out).
		Int("features", len(report.Features)).
		Msg("batch written")
	return nil
}
