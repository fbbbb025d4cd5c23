package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ironsheep/particle-tracker-mcp/internal/imaging"
	"github.com/ironsheep/particle-tracker-mcp/internal/overlay"
	"github.com/ironsheep/particle-tracker-mcp/internal/tracker"
)

// Options configures a batch run.
type Options struct {
	Detector tracker.Kind
	// Config is the detector configuration; nil means the defaults of
	// Detector.
	Config     tracker.Config
	Preprocess imaging.Preprocess
	// OverlayDir receives one annotated PNG per frame when set.
	OverlayDir string
	// Protocol is a text file whose lines are copied into the export header.
	Protocol string
}

// ProgressFunc is called after each frame with the number of frames handled
// so far and the total.
type ProgressFunc func(done, total int)

// Runner drives a detector over a frame source.
type Runner struct {
	registry *tracker.Registry
	log      zerolog.Logger
	opt      Options
	progress ProgressFunc
}

// NewRunner validates opt and returns a runner.
func NewRunner(registry *tracker.Registry, log zerolog.Logger, opt Options) (*Runner, error) {
	if _, err := registry.Get(opt.Detector); err != nil {
		return nil, err
	}
	if opt.Config == nil {
		cfg, err := tracker.DefaultConfig(opt.Detector)
		if err != nil {
			return nil, err
		}
		opt.Config = cfg
	}
	if opt.Config.Kind() != opt.Detector {
		return nil, errors.Errorf("configuration is for %s, detector is %s", opt.Config.Kind(), opt.Detector)
	}
	if err := tracker.Validate(opt.Config); err != nil {
		return nil, err
	}
	if err := tracker.ValidateOptions("preprocess", opt.Preprocess); err != nil {
		return nil, err
	}
	return &Runner{
		registry: registry,
		log:      log.With().Str("detector", opt.Detector.String()).Logger(),
		opt:      opt,
	}, nil
}

// OnProgress installs fn as the progress callback.
func (r *Runner) OnProgress(fn ProgressFunc) { r.progress = fn }

// Run processes every frame of src in order. When ctx is cancelled the
// report built so far is returned together with the context error.
func (r *Runner) Run(ctx context.Context, src Source) (*Report, error) {
	total := src.Len()
	report := &Report{
		Metadata: Metadata{
			RunID:        uuid.NewString(),
			Started:      time.Now().UTC(),
			Detector:     r.opt.Detector,
			Config:       r.opt.Config,
			Frames:       total,
			Binning:      r.opt.Preprocess.Binning,
			Median:       r.opt.Preprocess.Median,
			SubtractMean: r.opt.Preprocess.SubtractMean,
			ROI:          r.opt.Preprocess.ROI,
		},
		Columns:  r.opt.Detector.Columns(),
		Features: make([]tracker.Feature, 0),
	}
	if r.opt.Protocol != "" {
		lines, err := readProtocol(r.opt.Protocol)
		if err != nil {
			return nil, err
		}
		report.Metadata.Protocol = lines
	}
	if r.opt.OverlayDir != "" {
		if err := os.MkdirAll(r.opt.OverlayDir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create overlay directory")
		}
	}

	log := r.log.With().Str("run_id", report.Metadata.RunID).Logger()
	log.Info().Int("frames", total).Msg("batch started")

	var background *imaging.Frame
	if r.opt.Preprocess.SubtractMean {
		bg, err := r.meanFrame(ctx, src)
		if err != nil {
			return report, err
		}
		background = bg
	}

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			log.Warn().Int("processed", i).Int("frames", total).Msg("batch cancelled")
			return report, errors.Wrapf(err, "batch cancelled after %d of %d frames", i, total)
		}

		features, err := r.frame(i, src, background, report)
		if err != nil {
			log.Error().Err(err).Int("frame", i).Str("source", src.Name(i)).Msg("frame failed")
			report.Failed = append(report.Failed, FrameError{Frame: i, Source: src.Name(i), Err: err.Error()})
		} else {
			report.Features = append(report.Features, features...)
			report.Processed++
		}

		if r.progress != nil {
			r.progress(i+1, total)
		}
	}

	log.Info().
		Int("processed", report.Processed).
		Int("failed", len(report.Failed)).
		Int("features", len(report.Features)).
		Dur("elapsed", time.Since(report.Metadata.Started)).
		Msg("batch finished")
	return report, nil
}

func (r *Runner) frame(i int, src Source, background *imaging.Frame, report *Report) ([]tracker.Feature, error) {
	raw, err := src.Frame(i)
	if err != nil {
		return nil, err
	}
	f, err := r.opt.Preprocess.Apply(raw, background)
	if err != nil {
		return nil, errors.Wrap(err, "preprocess")
	}
	if report.Metadata.Width == 0 {
		report.Metadata.Width, report.Metadata.Height = f.Width, f.Height
	}

	res, err := r.registry.Detect(r.opt.Detector, i, f, r.opt.Config)
	if err != nil {
		return nil, err
	}

	if r.opt.OverlayDir != "" {
		path := filepath.Join(r.opt.OverlayDir, fmt.Sprintf("frame_%05d.png", i))
		prims := overlay.Build(res.Features, overlay.Options{})
		if err := overlay.Save(path, f, prims, overlay.RenderOptions{}); err != nil {
			r.log.Warn().Err(err).Int("frame", i).Msg("overlay not written")
		}
	}
	return res.Features, nil
}

// meanFrame averages the binned and median-filtered frames of src. Frames
// that fail to load are left out.
func (r *Runner) meanFrame(ctx context.Context, src Source) (*imaging.Frame, error) {
	pre := imaging.Preprocess{Binning: r.opt.Preprocess.Binning, Median: r.opt.Preprocess.Median}
	frames := make([]*imaging.Frame, 0, src.Len())
	for i := 0; i < src.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "batch cancelled while averaging frames")
		}
		raw, err := src.Frame(i)
		if err != nil {
			r.log.Warn().Err(err).Int("frame", i).Msg("frame left out of the mean")
			continue
		}
		f, err := pre.Apply(raw, nil)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	mean, err := imaging.MeanFrame(frames)
	if err != nil {
		return nil, errors.Wrap(err, "mean frame")
	}
	return mean, nil
}
