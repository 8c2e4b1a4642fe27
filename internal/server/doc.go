// Package server exposes the grading pipeline as an MCP (Model Context
// Protocol) tool server.
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
// Grading:
//   - grade_image: Grade every handwritten character on a worksheet photo
//   - grade_character: Grade one character image against its template
//   - grade_directory: Grade every image in a directory
//
// Pipeline stages:
//   - preprocess_image: Return the binary ink mask, optionally after perspective correction
//   - detect_grid: Locate the practice grid rulings
//   - extract_features: Measure a character image
//   - score_features: Compare two feature sets and produce feedback
//   - annotate_grade: Grade a worksheet and draw the scores onto it
//
// Templates:
//   - template_info: Report the reference features for a character
//
// Images are loaded through an in-memory cache keyed by path, so a client
// that runs several stages on the same file decodes it once.
//
// # Error Handling
//
// Tool failures are JSON-RPC errors with code -32000 and the Go error
// string in data. Malformed tools/call params give -32602 and unknown
// methods -32601.
//
// # Usage
//
//	srv := server.New(g, version)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
