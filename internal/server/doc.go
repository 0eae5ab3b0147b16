// Package server implements the MCP (Model Context Protocol) server for
// plant element quantification.
//
// The server exposes the plant pipeline (grouping channel files, choosing a
// threshold, segmenting regions, summing element counts) as tools so that an
// MCP client can drive it interactively.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Discovery:
//   - plant_scan: Group channel files by plant and open sessions
//   - plant_source_info: Format, size and count statistics of one file
//
// Pipeline:
//   - plant_threshold: Threshold of the reference channel
//   - plant_mask: Ordered regions, optionally with rendered images
//   - plant_quantify: Region x element table, summaries and exports
//
// Inspection:
//   - plant_region_preview: Crop of one region from any channel
//   - plant_histogram_plot: Reference histogram with the threshold marked
//
// plant_session_close discards a session.
//
// # Sessions
//
// plant_scan returns one session ID per plant. A session holds the plant's
// files, its current options and the last segmentation, so plant_quantify
// and plant_region_preview reuse the mask from the preceding plant_mask.
// Calls on one session are serialized. Each session decodes its channels
// once into its own cache, which plant_session_close releases; files
// rewritten on disk are picked up by the next plant_scan.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
package server
