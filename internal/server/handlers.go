package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/shear-failure-mcp/internal/geometry"
	"github.com/ironsheep/shear-failure-mcp/internal/measure"
	"github.com/ironsheep/shear-failure-mcp/internal/raster"
	"github.com/ironsheep/shear-failure-mcp/internal/segmentation"
	"github.com/ironsheep/shear-failure-mcp/internal/session"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "sfrm_analyze").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// ToolError is the data attached to a failed tool call.
type ToolError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// errArguments marks malformed tool arguments.
var errArguments = errors.New("invalid arguments")

var errorKinds = []struct {
	err  error
	kind string
}{
	{geometry.ErrInvalidGeometry, "invalid_geometry"},
	{segmentation.ErrEmptyRegion, "empty_region"},
	{raster.ErrShapeMismatch, "shape_mismatch"},
	{segmentation.ErrDegenerateStatistics, "degenerate_statistics"},
	{measure.ErrInvalidScale, "invalid_scale"},
	{raster.ErrCorruptSparse, "corrupt_sparse"},
	{session.ErrNoImage, "no_image"},
	{errArguments, "invalid_arguments"},
	{context.Canceled, "cancelled"},
}

// errorKind names the failure class of err, or "internal".
func errorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000
// and a ToolError as data.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		kind := errorKind(err)
		s.log.Warning(component, "tool failed", map[string]interface{}{
			"tool":  params.Name,
			"kind":  kind,
			"error": err.Error(),
		})
		return s.errorResponse(req.ID, -32000, "Tool execution failed", ToolError{Kind: kind, Message: err.Error()})
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
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Session
	case "sfrm_open_image":
		return s.handleOpenImage(args)
	case "sfrm_close_image":
		return s.handleCloseImage()
	case "sfrm_status":
		return s.session.Status()
	case "sfrm_set_crop":
		return s.handleSetCrop(args)
	case "sfrm_set_scale":
		return s.handleSetScale(args)
	case "sfrm_preview":
		return s.handlePreview(args)

	// Segmentation
	case "sfrm_analyze":
		return s.handleAnalyze(ctx, args)
	case "sfrm_add_polygon":
		return s.handleAddPolygon(ctx, args)
	case "sfrm_detect_riss":
		return s.handleDetectRiss(args)

	// Editing
	case "sfrm_delete_area":
		return s.handleDeleteArea(args)
	case "sfrm_delete_labels":
		return s.handleDeleteLabels(args)
	case "sfrm_clear_labels":
		return s.session.ClearLabels()
	case "sfrm_remove_small_blocks":
		return s.handleRemoveSmall(args, s.session.RemoveSmallBlocks)
	case "sfrm_remove_small_holes":
		return s.handleRemoveSmall(args, s.session.RemoveSmallHoles)

	// Measurement and export
	case "sfrm_region_table":
		return s.handleRegionTable(args)
	case "sfrm_export_csv":
		return s.handleExportCSV(args)
	case "sfrm_export_overlay":
		return s.handleExportOverlay(args)
	case "sfrm_save_labels":
		return s.handleSaveLabels(args)
	case "sfrm_load_labels":
		return s.handleLoadLabels(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments; missing arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%v: %w", err, errArguments)
	}
	return nil
}

// === Session Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (a pathArgs) validate() error {
	if a.Path == "" {
		return fmt.Errorf("path is required: %w", errArguments)
	}
	return nil
}

func decodePath(args json.RawMessage) (string, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	if err := a.validate(); err != nil {
		return "", err
	}
	return a.Path, nil
}

func (s *Server) handleOpenImage(args json.RawMessage) (interface{}, error) {
	path, err := decodePath(args)
	if err != nil {
		return nil, err
	}
	return s.session.Open(path)
}

func (s *Server) handleCloseImage() (interface{}, error) {
	if err := s.session.Close(); err != nil {
		return nil, err
	}
	return map[string]interface{}{"closed": true}, nil
}

type polygonArgs struct {
	Polygon geometry.Polygon `json:"polygon"`
}

func (s *Server) handleSetCrop(args json.RawMessage) (interface{}, error) {
	var a polygonArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.session.SetCrop(a.Polygon)
}

type setScaleArgs struct {
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
	Length float64 `json:"length"`
}

func (s *Server) handleSetScale(args json.RawMessage) (interface{}, error) {
	var a setScaleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	line := geometry.Line{
		A: geometry.Point{X: a.X1, Y: a.Y1},
		B: geometry.Point{X: a.X2, Y: a.Y2},
	}
	scale, err := s.session.SetScale(line, a.Length)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"scale":     scale,
		"line_px":   line.Length(),
		"length_mm": a.Length,
	}, nil
}

type previewArgs struct {
	X1              int     `json:"x1"`
	Y1              int     `json:"y1"`
	X2              int     `json:"x2"`
	Y2              int     `json:"y2"`
	Scale           float64 `json:"scale"`
	GridSpacing     int     `json:"grid_spacing"`
	ShowCoordinates *bool   `json:"show_coordinates"`
	Overlay         *bool   `json:"overlay"`
}

func (s *Server) handlePreview(args json.RawMessage) (interface{}, error) {
	var a previewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	rect := image.Rect(a.X1, a.Y1, a.X2, a.Y2)
	if (a.X1 != 0 || a.Y1 != 0 || a.X2 != 0 || a.Y2 != 0) && (a.X1 >= a.X2 || a.Y1 >= a.Y2) {
		return nil, fmt.Errorf("invalid preview region: x1 must be < x2, y1 must be < y2: %w", errArguments)
	}
	return s.session.Preview(session.PreviewRequest{
		Rect:        rect,
		Scale:       a.Scale,
		GridSpacing: a.GridSpacing,
		Coordinates: a.ShowCoordinates == nil || *a.ShowCoordinates,
		Overlay:     a.Overlay == nil || *a.Overlay,
	})
}

// === Segmentation Handlers ===

type analyzeArgs struct {
	Polygons []geometry.Polygon `json:"polygons"`
	Append   bool               `json:"append"`
}

func (s *Server) handleAnalyze(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a analyzeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.session.Analyze(ctx, a.Polygons, a.Append)
}

func (s *Server) handleAddPolygon(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a polygonArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.session.AddPolygon(ctx, a.Polygon)
}

type polygonsArgs struct {
	Polygons []geometry.Polygon `json:"polygons"`
}

func (s *Server) handleDetectRiss(args json.RawMessage) (interface{}, error) {
	var a polygonsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.session.DetectRiss(a.Polygons)
}

// === Editing Handlers ===

func (s *Server) handleDeleteArea(args json.RawMessage) (interface{}, error) {
	var a polygonArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.session.DeleteArea(a.Polygon)
}

type labelsArgs struct {
	Labels []int `json:"labels"`
}

func (s *Server) handleDeleteLabels(args json.RawMessage) (interface{}, error) {
	var a labelsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.session.DeleteLabels(a.Labels)
}

type minSizeArgs struct {
	MinSize *int `json:"min_size"`
}

// defaultMinSize applies when min_size is omitted.
const defaultMinSize = 64

func (s *Server) handleRemoveSmall(args json.RawMessage, op func(int) (*session.Status, error)) (interface{}, error) {
	var a minSizeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	size := defaultMinSize
	if a.MinSize != nil {
		size = *a.MinSize
	}
	if size < 0 {
		return nil, fmt.Errorf("min_size %d is negative: %w", size, errArguments)
	}
	return op(size)
}

// === Measurement Handlers ===

func (s *Server) handleRegionTable(args json.RawMessage) (interface{}, error) {
	var a labelsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	t, err := s.session.RegionTable(a.Labels...)
	if err != nil {
		return nil, err
	}
	return t.Round(), nil
}

func (s *Server) handleExportCSV(args json.RawMessage) (interface{}, error) {
	path, err := decodePath(args)
	if err != nil {
		return nil, err
	}
	t, err := s.session.ExportCSV(path)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"path":   path,
		"rows":   len(t.Records),
		"totals": t.Round().Totals,
	}, nil
}

type exportOverlayArgs struct {
	Path          string  `json:"path"`
	Labels        []int   `json:"labels"`
	Alpha         float64 `json:"alpha"`
	CropToRegion  bool    `json:"crop_to_region"`
	InlineMaxSide int     `json:"inline_max_side"`
}

func (s *Server) handleExportOverlay(args json.RawMessage) (interface{}, error) {
	var a exportOverlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := (pathArgs{Path: a.Path}).validate(); err != nil {
		return nil, err
	}
	if a.Alpha < 0 || a.Alpha > 1 {
		return nil, fmt.Errorf("alpha %g outside [0,1]: %w", a.Alpha, errArguments)
	}
	return s.session.ExportOverlay(a.Path, session.OverlayRequest{
		Labels:        a.Labels,
		Alpha:         a.Alpha,
		CropToRegion:  a.CropToRegion,
		InlineMaxSide: a.InlineMaxSide,
	})
}

func (s *Server) handleSaveLabels(args json.RawMessage) (interface{}, error) {
	path, err := decodePath(args)
	if err != nil {
		return nil, err
	}
	sp, err := s.session.SaveLabels(path)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"path":    path,
		"shape":   sp.Shape,
		"nonzero": len(sp.Data),
	}, nil
}

func (s *Server) handleLoadLabels(args json.RawMessage) (interface{}, error) {
	path, err := decodePath(args)
	if err != nil {
		return nil, err
	}
	return s.session.LoadLabels(path)
}
