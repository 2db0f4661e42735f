// Package server implements the MCP (Model Context Protocol) server for
// shear-failure region measurement.
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
// Session:
//   - sfrm_open_image, sfrm_close_image, sfrm_status
//   - sfrm_set_crop: restrict analysis to a sample polygon
//   - sfrm_set_scale: calibrate mm per pixel from a reference line
//   - sfrm_preview: crop of the photograph with labels and a coordinate grid
//
// Segmentation:
//   - sfrm_analyze: masked Otsu per polygon, merged in order
//   - sfrm_add_polygon: merge one more polygon
//   - sfrm_detect_riss: mean + z*sigma detection from example polygons
//
// Editing:
//   - sfrm_delete_area, sfrm_delete_labels, sfrm_clear_labels
//   - sfrm_remove_small_blocks, sfrm_remove_small_holes
//
// Measurement and export:
//   - sfrm_region_table, sfrm_export_csv, sfrm_export_overlay
//   - sfrm_save_labels, sfrm_load_labels (sparse CSR JSON)
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with code
// -32000 and a ToolError as data. Its kind is one of invalid_geometry,
// empty_region, shape_mismatch, degenerate_statistics, invalid_scale,
// corrupt_sparse, no_image, invalid_arguments, cancelled or internal.
//
// # Usage
//
//	sess := session.New(imaging.NewImageCache(), log, opts)
//	srv := server.New(sess, log, version)
//	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
package server
