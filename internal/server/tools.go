package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pointSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "number", "description": "Column coordinate in pixels"},
			"y": map[string]interface{}{"type": "number", "description": "Row coordinate in pixels"},
		},
		"required": []string{"x", "y"},
	}
}

func polygonSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items":       pointSchema(),
		"minItems":    3,
	}
}

func pathSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func emptySchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Session
		{
			Name:        "sfrm_open_image",
			Description: "Open a photograph of a shear joint surface and start an empty label field for it. Replaces any open photograph.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathSchema("Absolute path to the image file (png, jpeg, gif, tiff)"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "sfrm_close_image",
			Description: "Close the open photograph and discard its labels.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "sfrm_status",
			Description: "Report the open photograph, crop region, scale and label counts.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "sfrm_set_crop",
			Description: "Restrict analysis to a polygonal sample region. An empty polygon removes the crop.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"polygon": map[string]interface{}{
						"type":        "array",
						"description": "Crop polygon vertices; empty clears the crop",
						"items":       pointSchema(),
					},
				},
				"required": []string{"polygon"},
			},
		},
		{
			Name:        "sfrm_set_scale",
			Description: "Calibrate millimetres per pixel from a reference line of known length.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x1":     map[string]interface{}{"type": "number", "description": "Line start X"},
					"y1":     map[string]interface{}{"type": "number", "description": "Line start Y"},
					"x2":     map[string]interface{}{"type": "number", "description": "Line end X"},
					"y2":     map[string]interface{}{"type": "number", "description": "Line end Y"},
					"length": map[string]interface{}{"type": "number", "description": "Physical length of the line in mm"},
				},
				"required": []string{"x1", "y1", "x2", "y2", "length"},
			},
		},
		{
			Name:        "sfrm_preview",
			Description: "Return part of the photograph as base64 PNG, optionally with the current labels and a coordinate grid. Grid labels are image coordinates usable as polygon vertices.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x1": map[string]interface{}{"type": "integer", "description": "Left edge X coordinate (0-based)"},
					"y1": map[string]interface{}{"type": "integer", "description": "Top edge Y coordinate (0-based)"},
					"x2": map[string]interface{}{"type": "integer", "description": "Right edge X coordinate (exclusive). Omit all four for the whole image"},
					"y2": map[string]interface{}{"type": "integer", "description": "Bottom edge Y coordinate (exclusive)"},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
					"grid_spacing": map[string]interface{}{
						"type":        "integer",
						"description": "Grid line spacing in image pixels. 0 disables the grid",
						"default":     0,
					},
					"show_coordinates": map[string]interface{}{
						"type":        "boolean",
						"description": "Label grid intersections with their coordinates",
						"default":     true,
					},
					"overlay": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw the current labels",
						"default":     true,
					},
				},
			},
		},

		// Segmentation
		{
			Name:        "sfrm_analyze",
			Description: "Segment each polygon with a masked Otsu threshold and merge the regions into the label field in order. Without append the field is cleared first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"polygons": map[string]interface{}{
						"type":        "array",
						"description": "Polygons around failure regions",
						"items":       polygonSchema("Polygon vertices"),
					},
					"append": map[string]interface{}{
						"type":        "boolean",
						"description": "Merge into the existing labels instead of replacing them",
						"default":     false,
					},
				},
				"required": []string{"polygons"},
			},
		},
		{
			Name:        "sfrm_add_polygon",
			Description: "Segment one more polygon and merge it into the existing labels. Regions it overlaps keep their ids.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"polygon": polygonSchema("Polygon around a failure region"),
				},
				"required": []string{"polygon"},
			},
		},
		{
			Name:        "sfrm_detect_riss",
			Description: "Pool the intensities under example polygons and label every pixel of the crop region (or image) brighter than mean + z*sigma.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"polygons": map[string]interface{}{
						"type":        "array",
						"description": "Polygons over typical failure surface",
						"items":       polygonSchema("Polygon vertices"),
					},
				},
				"required": []string{"polygons"},
			},
		},

		// Editing
		{
			Name:        "sfrm_delete_area",
			Description: "Clear every label inside a polygon.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"polygon": polygonSchema("Area to clear"),
				},
				"required": []string{"polygon"},
			},
		},
		{
			Name:        "sfrm_delete_labels",
			Description: "Remove regions by id.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"labels": map[string]interface{}{
						"type":        "array",
						"description": "Region ids to remove",
						"items":       map[string]interface{}{"type": "integer"},
					},
				},
				"required": []string{"labels"},
			},
		},
		{
			Name:        "sfrm_clear_labels",
			Description: "Remove every region.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "sfrm_remove_small_blocks",
			Description: "Drop labeled blobs smaller than min_size pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"min_size": map[string]interface{}{
						"type":        "integer",
						"description": "Smallest blob kept, in pixels. Default 64",
						"default":     64,
					},
				},
			},
		},
		{
			Name:        "sfrm_remove_small_holes",
			Description: "Fill enclosed holes smaller than min_size pixels with the surrounding region.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"min_size": map[string]interface{}{
						"type":        "integer",
						"description": "Holes strictly smaller are filled. Default 64",
						"default":     64,
					},
				},
			},
		},

		// Measurement and export
		{
			Name:        "sfrm_region_table",
			Description: "Measure centroid, area and perimeter of every region, in pixels and (when a scale is set) millimetres.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"labels": map[string]interface{}{
						"type":        "array",
						"description": "Region ids to measure; empty measures all",
						"items":       map[string]interface{}{"type": "integer"},
					},
				},
			},
		},
		{
			Name:        "sfrm_export_csv",
			Description: "Write the region table as CSV with a Total row.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathSchema("Output CSV path"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "sfrm_export_overlay",
			Description: "Render the labels over the photograph and write a PNG. Optionally return a scaled base64 copy for inspection.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathSchema("Output PNG path"),
					"labels": map[string]interface{}{
						"type":        "array",
						"description": "Region ids to draw; empty draws all",
						"items":       map[string]interface{}{"type": "integer"},
					},
					"alpha": map[string]interface{}{
						"type":        "number",
						"description": "Label opacity 0..1. Default from configuration",
					},
					"crop_to_region": map[string]interface{}{
						"type":        "boolean",
						"description": "Trim the output to the crop region's bounding box",
						"default":     false,
					},
					"inline_max_side": map[string]interface{}{
						"type":        "integer",
						"description": "Also return the overlay as base64 PNG fitted to this size. 0 disables",
						"default":     0,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "sfrm_save_labels",
			Description: "Save the label field as sparse CSR JSON.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathSchema("Output JSON path"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "sfrm_load_labels",
			Description: "Replace the label field with one saved by sfrm_save_labels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathSchema("Input JSON path"),
				},
				"required": []string{"path"},
			},
		},
	}
}
