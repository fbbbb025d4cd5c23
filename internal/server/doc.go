// Package server implements the MCP (Model Context Protocol) server for
// particle tracking.
//
// The server speaks JSON-RPC 2.0 over stdio and exposes the detectors of the
// tracker package as tools, so an MCP client can load microscopy frames,
// tune detector options, look at annotated overlays and export feature
// tables for whole frame series.
//
// # Protocol
//
// One JSON-RPC request per line on stdin, one response per line on stdout.
// Logs go to stderr. Supported methods:
//   - initialize: protocol handshake
//   - tools/list: enumerate available tools
//   - tools/call: execute a tool with arguments
//   - ping: health check
//
// # Available Tools
//
// Frames:
//   - frame_load: load a frame and report its size, bit depth and intensity range
//   - frame_sample: intensities at points and statistics of a region
//
// Particles:
//   - particles_list_detectors: detector kinds, table columns and default options
//   - particles_detect: run a detector on one frame and return the feature table
//   - particles_render: run a detector and return an annotated PNG
//   - particles_batch: run a detector over a frame series and write a CSV export
//
// Detector options are passed as a JSON object under "config" and are laid
// over the detector defaults; unknown keys and out-of-range values are
// rejected before any pixel is touched.
//
// # Frame Caching
//
// Decoded frames are cached by path in an imaging.FrameCache bounded by
// PARTICLE_TRACKER_CACHE_FRAMES, so repeated tuning calls on the same frame
// skip disk I/O.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: human-readable error description
//   - data: the Go error string
package server
