package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"

	"github.com/pkg/errors"

	"github.com/ironsheep/particle-tracker-mcp/internal/batch"
	"github.com/ironsheep/particle-tracker-mcp/internal/imaging"
	"github.com/ironsheep/particle-tracker-mcp/internal/overlay"
	"github.com/ironsheep/particle-tracker-mcp/internal/tracker"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "frame_load", "particles_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Err(err).Str("tool", params.Name).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads frames from the cache
//  4. Runs the detector, overlay or batch machinery
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Frames
	case "frame_load":
		return s.handleFrameLoad(args)
	case "frame_sample":
		return s.handleFrameSample(args)

	// Particles
	case "particles_list_detectors":
		return s.handleListDetectors()
	case "particles_detect":
		return s.handleDetect(args)
	case "particles_render":
		return s.handleRender(args)
	case "particles_batch":
		return s.handleBatch(ctx, args)

	default:
		return nil, errors.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments, rejecting unknown keys.
func decodeArgs(args json.RawMessage, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "invalid arguments")
	}
	return nil
}

// === Frame Handlers ===

type frameLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleFrameLoad(args json.RawMessage) (interface{}, error) {
	var a frameLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadFrameInfo(s.cache, a.Path)
}

type frameSampleArgs struct {
	Path   string `json:"path"`
	Points []struct {
		X int `json:"x"`
		Y int `json:"y"`
	} `json:"points"`
	Region *imaging.ROI `json:"region,omitempty"`
	Bins   *int         `json:"bins,omitempty"`
}

type frameSampleResult struct {
	Samples []imaging.Sample     `json:"samples,omitempty"`
	Stats   *imaging.RegionStats `json:"stats"`
}

func (s *Server) handleFrameSample(args json.RawMessage) (interface{}, error) {
	var a frameSampleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	bins := 16
	if a.Bins != nil {
		bins = *a.Bins
	}
	f, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	var res frameSampleResult
	if len(a.Points) > 0 {
		points := make([]image.Point, len(a.Points))
		for i, p := range a.Points {
			points[i] = image.Point{X: p.X, Y: p.Y}
		}
		if res.Samples, err = imaging.SamplePoints(f, points); err != nil {
			return nil, err
		}
	}

	region := f.Bounds()
	if a.Region != nil {
		region = a.Region.Rect()
	}
	if res.Stats, err = imaging.Stats(f, region, bins); err != nil {
		return nil, err
	}
	return res, nil
}

// === Particle Handlers ===

func (s *Server) handleListDetectors() (interface{}, error) {
	return map[string]interface{}{
		"default":   s.app.DefaultDetector,
		"detectors": s.registry.Describe(),
	}, nil
}

// detectArgs are the arguments shared by the single-frame particle tools.
type detectArgs struct {
	Path       string             `json:"path"`
	Detector   string             `json:"detector"`
	Config     json.RawMessage    `json:"config"`
	Preprocess imaging.Preprocess `json:"preprocess"`
	Frame      int                `json:"frame"`
}

// detection is a finished single-frame run.
type detection struct {
	kind   tracker.Kind
	frame  *imaging.Frame
	result *tracker.Result
}

// detect loads, preprocesses and runs the requested detector on one frame.
func (s *Server) detect(a detectArgs) (*detection, error) {
	kind, err := s.kind(a.Detector)
	if err != nil {
		return nil, err
	}
	cfg, err := tracker.DecodeConfig(kind, a.Config)
	if err != nil {
		return nil, err
	}
	if a.Preprocess.SubtractMean {
		return nil, errors.New("subtract_mean needs a frame series; use particles_batch")
	}
	if err := tracker.ValidateOptions("preprocess", a.Preprocess); err != nil {
		return nil, err
	}

	raw, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	f, err := a.Preprocess.Apply(raw, nil)
	if err != nil {
		return nil, err
	}

	res, err := s.registry.Detect(kind, a.Frame, f, cfg)
	if err != nil {
		return nil, err
	}
	s.log.Debug().
		Str("detector", kind.String()).
		Str("path", a.Path).
		Int("features", len(res.Features)).
		Msg("detection finished")
	return &detection{kind: kind, frame: f, result: res}, nil
}

func (s *Server) kind(name string) (tracker.Kind, error) {
	if name == "" {
		name = s.app.DefaultDetector
	}
	return tracker.ParseKind(name)
}

type particlesDetectArgs struct {
	detectArgs
	IncludeOverlay bool `json:"include_overlay"`
	ShowThreshold  bool `json:"show_threshold"`
}

type particlesDetectResult struct {
	Detector  tracker.Kind        `json:"detector"`
	Frame     int                 `json:"frame"`
	Width     int                 `json:"width"`
	Height    int                 `json:"height"`
	Count     int                 `json:"count"`
	Columns   []tracker.Column    `json:"columns"`
	Rows      [][]float64         `json:"rows"`
	Overlay   []overlay.Primitive `json:"overlay,omitempty"`
	Processed *overlay.Rendered   `json:"processed,omitempty"`
}

func (s *Server) handleDetect(args json.RawMessage) (interface{}, error) {
	var a particlesDetectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	d, err := s.detect(a.detectArgs)
	if err != nil {
		return nil, err
	}

	table := d.result.Table()
	out := particlesDetectResult{
		Detector: d.kind,
		Frame:    a.Frame,
		Width:    d.frame.Width,
		Height:   d.frame.Height,
		Count:    len(d.result.Features),
		Columns:  table.Columns,
		Rows:     table.Rows,
	}
	if a.IncludeOverlay {
		out.Overlay = overlay.Build(d.result.Features, overlay.Options{})
	}
	if a.ShowThreshold && d.result.Processed != nil {
		if out.Processed, err = overlay.Render(d.result.Processed, nil, overlay.RenderOptions{}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type particlesRenderArgs struct {
	detectArgs
	Scale             float64      `json:"scale"`
	Color             string       `json:"color"`
	Region            *imaging.ROI `json:"region,omitempty"`
	Grid              int          `json:"grid"`
	OrientationLength float64      `json:"orientation_length"`
	ShowThreshold     bool         `json:"show_threshold"`
}

type particlesRenderResult struct {
	Detector tracker.Kind `json:"detector"`
	Count    int          `json:"count"`
	*overlay.Rendered
}

func (s *Server) handleRender(args json.RawMessage) (interface{}, error) {
	var a particlesRenderArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	switch a.Color {
	case "":
		a.Color = s.app.OverlayColor
	case "auto":
		a.Color = ""
	}
	opts := overlay.RenderOptions{Scale: a.Scale, Color: a.Color, Region: a.Region, Grid: a.Grid}
	if err := tracker.ValidateOptions("render", opts); err != nil {
		return nil, err
	}
	buildOpts := overlay.Options{OrientationLength: a.OrientationLength}
	if err := tracker.ValidateOptions("overlay", buildOpts); err != nil {
		return nil, err
	}

	d, err := s.detect(a.detectArgs)
	if err != nil {
		return nil, err
	}
	base := d.frame
	if a.ShowThreshold && d.result.Processed != nil {
		base = d.result.Processed
	}
	img, err := overlay.Render(base, overlay.Build(d.result.Features, buildOpts), opts)
	if err != nil {
		return nil, err
	}
	return particlesRenderResult{Detector: d.kind, Count: len(d.result.Features), Rendered: img}, nil
}

type particlesBatchArgs struct {
	Paths      []string           `json:"paths"`
	Detector   string             `json:"detector"`
	Config     json.RawMessage    `json:"config"`
	Preprocess imaging.Preprocess `json:"preprocess"`
	Output     string             `json:"output"`
	OverlayDir string             `json:"overlay_dir"`
	Protocol   string             `json:"protocol"`
}

type particlesBatchResult struct {
	RunID     string             `json:"run_id"`
	Detector  tracker.Kind       `json:"detector"`
	Frames    int                `json:"frames"`
	Processed int                `json:"processed"`
	Features  int                `json:"features"`
	Failed    []batch.FrameError `json:"failed,omitempty"`
	Output    string             `json:"output,omitempty"`
}

func (s *Server) handleBatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a particlesBatchArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, errors.New("paths must list at least one frame")
	}
	kind, err := s.kind(a.Detector)
	if err != nil {
		return nil, err
	}
	cfg, err := tracker.DecodeConfig(kind, a.Config)
	if err != nil {
		return nil, err
	}

	runner, err := batch.NewRunner(s.registry, s.log, batch.Options{
		Detector:   kind,
		Config:     cfg,
		Preprocess: a.Preprocess,
		OverlayDir: a.OverlayDir,
		Protocol:   a.Protocol,
	})
	if err != nil {
		return nil, err
	}
	runner.OnProgress(func(done, total int) {
		s.log.Debug().Int("done", done).Int("total", total).Msg("batch progress")
	})

	// batch frames bypass the shared cache so a long series does not evict
	// the frames being tuned interactively
	report, err := runner.Run(ctx, batch.Files{Paths: a.Paths})
	if err != nil {
		return nil, err
	}
	if a.Output != "" {
		if err := batch.WriteCSVFile(a.Output, report); err != nil {
			return nil, err
		}
	}
	return particlesBatchResult{
		RunID:     report.Metadata.RunID,
		Detector:  kind,
		Frames:    report.Metadata.Frames,
		Processed: report.Processed,
		Features:  len(report.Features),
		Failed:    report.Failed,
		Output:    a.Output,
	}, nil
}
