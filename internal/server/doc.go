// Package server exposes the document scanner as an MCP server speaking
// JSON-RPC 2.0 over stdio, one message per line.
//
// Methods: initialize, notifications/initialized, tools/list, tools/call
// and ping.
//
// # Tools
//
//   - image_load, image_dimensions: describe a photograph
//   - document_detect: propose the page outline in working coordinates,
//     optionally with an overlay preview
//   - document_rectify: straighten the page, taking the proposal or four
//     corrected corners
//   - document_scan: detect, straighten and write image plus PDF
//   - image_edge_detect: the edge map detection runs on
//
// document_detect and document_rectify together form the correction loop
// the CLI runs in a terminal: the client sees the proposal, adjusts the
// corners and sends them back. Corners are always in the coordinates of
// the working image that document_detect reports.
//
// Decoded photographs are kept in a small cache keyed by path, so a
// detect followed by a rectify decodes the file once.
//
// A failed tool call is answered with code -32000 and the Go error in the
// data field; malformed params get -32602 and unknown methods -32601.
//
// Logging goes to the configured logrus logger, never to stdout.
package server
