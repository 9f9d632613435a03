// Package server implements the MCP (Model Context Protocol) server for form
// extraction tools.
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
// Forms:
//   - form_extract: Run a template against a scan
//   - form_template_validate: Check a template and list its fields
//   - form_template_bootstrap: Draft a template from a sample scan
//
// Images:
//   - image_ocr_full: Extract all text with line and word boxes
//   - image_info: Dimensions, format and size of a scan
//
// # Image Caching
//
// Decoded scans are cached by path for the lifetime of the process, so a
// bootstrap followed by repeated extractions decodes the image once.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with code
// -32000. For extraction failures the data member is an object holding the
// error kind (IMAGE_NOT_FOUND, TEMPLATE_PARSE_ERROR, ...) and message.
// Field-level failures are not errors: they appear in the result's rejected
// map.
package server
