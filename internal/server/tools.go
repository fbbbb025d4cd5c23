package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// shared property schemas
var (
	pathProperty = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the frame image (PNG, JPEG, GIF, BMP or TIFF)",
	}
	detectorProperty = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"connected-component", "ellipsoid", "janus", "difference-of-gaussians", "hough-circles", "yolo"},
		"description": "Detector kind. Defaults to the server's configured detector.",
	}
	configProperty = map[string]interface{}{
		"type":        "object",
		"description": "Detector options laid over the defaults (see particles_list_detectors). Unknown keys are rejected.",
	}
	roiProperty = map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "integer", "description": "Left edge (0-based)"},
			"y": map[string]interface{}{"type": "integer", "description": "Top edge (0-based)"},
			"w": map[string]interface{}{"type": "integer", "description": "Width in pixels"},
			"h": map[string]interface{}{"type": "integer", "description": "Height in pixels"},
		},
		"required": []string{"x", "y", "w", "h"},
	}
	preprocessProperty = map[string]interface{}{
		"type":        "object",
		"description": "Optional frame conditioning applied before detection",
		"properties": map[string]interface{}{
			"software_binning": map[string]interface{}{
				"type":        "integer",
				"description": "Average NxN pixel blocks into one pixel",
			},
			"median": map[string]interface{}{
				"type":        "integer",
				"description": "Median filter size in pixels",
			},
			"subtract_mean": map[string]interface{}{
				"type":        "boolean",
				"description": "Subtract the mean frame of the series (particles_batch only)",
			},
			"roi": roiProperty,
		},
	}
)

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Frames
		{
			Name:        "frame_load",
			Description: "Load a frame and return its dimensions, format, bit depth and intensity range. The decoded frame is cached for later calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "frame_sample",
			Description: "Read intensities at pixel coordinates and summarize a region (min, max, mean, std dev, median, 99th percentile, histogram). Use it to choose a detection threshold.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"points": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x": map[string]interface{}{"type": "integer", "description": "Column (0-based)"},
								"y": map[string]interface{}{"type": "integer", "description": "Row (0-based)"},
							},
							"required": []string{"x", "y"},
						},
						"description": "Pixels to sample",
					},
					"region": roiProperty,
					"bins": map[string]interface{}{
						"type":        "integer",
						"description": "Histogram bins for the region statistics. Default 16, 0 disables",
						"default":     16,
					},
				},
				"required": []string{"path"},
			},
		},

		// Particles
		{
			Name:        "particles_list_detectors",
			Description: "List the available particle detectors with their output columns and default options.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "particles_detect",
			Description: "Detect particles in one frame and return the feature table (one row per particle, x = column, y = row). Optionally include overlay primitives and the thresholded/edge image the detector worked on.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       pathProperty,
					"detector":   detectorProperty,
					"config":     configProperty,
					"preprocess": preprocessProperty,
					"frame": map[string]interface{}{
						"type":        "integer",
						"description": "Frame index recorded in the feature table. Default 0",
						"default":     0,
					},
					"include_overlay": map[string]interface{}{
						"type":        "boolean",
						"description": "Return overlay primitives (ellipses, circles, orientation segments)",
						"default":     false,
					},
					"show_threshold": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the processed image (threshold mask or edge map) as base64 PNG",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "particles_render",
			Description: "Detect particles in one frame and return the frame with the detections drawn on top as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       pathProperty,
					"detector":   detectorProperty,
					"config":     configProperty,
					"preprocess": preprocessProperty,
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Overlay colour as #rrggbb or #rrggbbaa. Use \"auto\" for one colour per particle",
					},
					"region": roiProperty,
					"grid": map[string]interface{}{
						"type":        "integer",
						"description": "Draw a labelled coordinate grid every N frame pixels. Default 0 (off)",
						"default":     0,
					},
					"orientation_length": map[string]interface{}{
						"type":        "number",
						"description": "Length of Janus orientation markers in pixels. Default 10",
					},
					"show_threshold": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw on the processed image instead of the frame",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "particles_batch",
			Description: "Run a detector over a series of frames (one file per frame, in order) and write the feature table with run metadata to a CSV file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths of the frames in acquisition order",
					},
					"detector":   detectorProperty,
					"config":     configProperty,
					"preprocess": preprocessProperty,
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Path of the CSV file to write. Omit to only return the summary",
					},
					"overlay_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory receiving one annotated PNG per frame",
					},
					"protocol": map[string]interface{}{
						"type":        "string",
						"description": "Text file whose lines are copied into the CSV header",
					},
				},
				"required": []string{"paths"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
