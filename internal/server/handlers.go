package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"path/filepath"

	"github.com/foundersai25/talkdoc-core/internal/detection"
	"github.com/foundersai25/talkdoc-core/internal/geometry"
	"github.com/foundersai25/talkdoc-core/internal/imaging"
	"github.com/foundersai25/talkdoc-core/internal/scan"
	"github.com/sirupsen/logrus"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "document_scan").
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
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.WithFields(logrus.Fields{"tool": params.Name}).WithError(err).Warn("Tool failed")
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
//  3. Loads images from cache as needed
//  4. Calls the appropriate imaging/scan function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Document Operations
	case "document_detect":
		return s.handleDocumentDetect(args)
	case "document_rectify":
		return s.handleDocumentRectify(args)
	case "document_scan":
		return s.handleDocumentScan(args)

	// Diagnostics
	case "image_edge_detect":
		return s.handleImageEdgeDetect(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Document Handlers ===

// scanArgs are the per-call overrides shared by the document tools.
type scanArgs struct {
	MinAreaRatio  float64 `json:"min_area_ratio"`
	MaxAngleRange float64 `json:"max_angle_range"`
	Binarize      *bool   `json:"binarize"`
	Color         bool    `json:"color"`
}

// scanner builds a Scanner from the server defaults and a call's
// overrides.
func (s *Server) scanner(a scanArgs, interactive bool) *scan.Scanner {
	opts := s.opts
	if a.MinAreaRatio > 0 {
		opts.MinQuadAreaRatio = a.MinAreaRatio
	}
	if a.MaxAngleRange > 0 {
		opts.MaxQuadAngleRange = a.MaxAngleRange
	}
	if a.Binarize != nil {
		opts.Binarize = *a.Binarize
	}
	opts.Interactive = interactive
	return scan.New(opts, scan.WithLogger(s.log))
}

type documentDetectArgs struct {
	scanArgs
	Path         string `json:"path"`
	Overlay      bool   `json:"overlay"`
	OverlayColor string `json:"overlay_color"`
}

// DocumentDetectResult describes the page found in a photograph.
type DocumentDetectResult struct {
	Width         int              `json:"width"`
	Height        int              `json:"height"`
	WorkingWidth  int              `json:"working_width"`
	WorkingHeight int              `json:"working_height"`
	Ratio         float64          `json:"ratio"`
	Quad          geometry.Quad    `json:"quad"`
	OriginalQuad  geometry.Quad    `json:"original_quad"`
	Source        detection.Source `json:"source"`
	Degraded      bool             `json:"degraded"`
	Area          float64          `json:"area"`
	AngleRange    float64          `json:"angle_range"`
	OverlayBase64 string           `json:"overlay_base64,omitempty"`
	MimeType      string           `json:"mime_type,omitempty"`
}

func (s *Server) handleDocumentDetect(args json.RawMessage) (interface{}, error) {
	var a documentDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OverlayColor == "" {
		a.OverlayColor = s.save.OverlayColor
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	sess, err := s.scanner(a.scanArgs, true).Detect(img)
	if err != nil {
		return nil, err
	}
	sel := sess.Selection()
	req := sess.Proposal()
	result := &DocumentDetectResult{
		Width:         img.Bounds().Dx(),
		Height:        img.Bounds().Dy(),
		WorkingWidth:  req.Width,
		WorkingHeight: req.Height,
		Ratio:         sess.Ratio(),
		Quad:          sel.Quad,
		OriginalQuad:  sel.Quad.Scale(sess.Ratio()),
		Source:        sel.Source,
		Degraded:      sel.Degraded(),
		Area:          sel.Area,
		AngleRange:    sel.AngleRange,
	}
	if a.Overlay {
		overlay := imaging.DrawQuad(req.Image, sel.Quad, a.OverlayColor)
		encoded, err := imaging.EncodePNGBase64(overlay)
		if err != nil {
			return nil, fmt.Errorf("failed to encode overlay: %w", err)
		}
		result.OverlayBase64 = encoded
		result.MimeType = "image/png"
	}
	return result, nil
}

type documentRectifyArgs struct {
	scanArgs
	Path       string           `json:"path"`
	Corners    []geometry.Point `json:"corners"`
	OutputPath string           `json:"output_path"`
	PDFPath    string           `json:"pdf_path"`
}

// DocumentRectifyResult describes a straightened page.
type DocumentRectifyResult struct {
	Width       int              `json:"width"`
	Height      int              `json:"height"`
	Quad        geometry.Quad    `json:"quad"`
	Source      detection.Source `json:"source"`
	Degraded    bool             `json:"degraded"`
	OutputPath  string           `json:"output_path,omitempty"`
	PDFPath     string           `json:"pdf_path,omitempty"`
	ImageBase64 string           `json:"image_base64,omitempty"`
	MimeType    string           `json:"mime_type,omitempty"`
}

func (s *Server) handleDocumentRectify(args json.RawMessage) (interface{}, error) {
	var a documentRectifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Corners) != 0 && len(a.Corners) != 4 {
		return nil, fmt.Errorf("corners: expected 4 points, got %d", len(a.Corners))
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	sc := s.scanner(a.scanArgs, len(a.Corners) == 4)
	sess, err := sc.Detect(img)
	if err != nil {
		return nil, err
	}
	if len(a.Corners) == 4 {
		q := geometry.Quad{a.Corners[0], a.Corners[1], a.Corners[2], a.Corners[3]}
		if err := sess.Correct(q); err != nil {
			return nil, err
		}
	}
	res, err := sc.Rectify(sess)
	if err != nil {
		return nil, err
	}

	var pageImg image.Image = res.Image
	if a.Color {
		pageImg = res.Warped
	}
	result := &DocumentRectifyResult{
		Width:    pageImg.Bounds().Dx(),
		Height:   pageImg.Bounds().Dy(),
		Quad:     res.Quad,
		Source:   res.Source,
		Degraded: res.Degraded,
	}

	if a.OutputPath != "" {
		if err := scan.SaveImage(a.OutputPath, pageImg); err != nil {
			return nil, err
		}
		result.OutputPath = a.OutputPath
	}
	if a.PDFPath != "" {
		if err := scan.WritePDFFile(a.PDFPath, pageImg, s.save.DPI); err != nil {
			return nil, err
		}
		result.PDFPath = a.PDFPath
	}
	if a.OutputPath == "" && a.PDFPath == "" {
		encoded, err := imaging.EncodePNGBase64(pageImg)
		if err != nil {
			return nil, fmt.Errorf("failed to encode page: %w", err)
		}
		result.ImageBase64 = encoded
		result.MimeType = "image/png"
	}
	return result, nil
}

type documentScanArgs struct {
	scanArgs
	Path      string `json:"path"`
	OutputDir string `json:"output_dir"`
	Overlay   bool   `json:"overlay"`
}

// DocumentScanResult lists the files written for a scanned page.
type DocumentScanResult struct {
	Files    scan.SavedFiles  `json:"files"`
	Width    int              `json:"width"`
	Height   int              `json:"height"`
	Source   detection.Source `json:"source"`
	Degraded bool             `json:"degraded"`
}

func (s *Server) handleDocumentScan(args json.RawMessage) (interface{}, error) {
	var a documentScanArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OutputDir == "" {
		a.OutputDir = s.outDir
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	res, err := s.scanner(a.scanArgs, false).Scan(context.Background(), img)
	if err != nil {
		return nil, err
	}

	opts := s.save
	opts.Color = a.Color
	opts.Overlay = a.Overlay
	files, err := scan.SaveResult(res, a.OutputDir, filepath.Base(a.Path), opts)
	if err != nil {
		return nil, err
	}
	return &DocumentScanResult{
		Files:    files,
		Width:    res.Image.Bounds().Dx(),
		Height:   res.Image.Bounds().Dy(),
		Source:   res.Source,
		Degraded: res.Degraded,
	}, nil
}

// === Diagnostic Handlers ===

type imageEdgeDetectArgs struct {
	Path          string `json:"path"`
	ThresholdLow  *int   `json:"threshold_low"`
	ThresholdHigh *int   `json:"threshold_high"`
}

func (s *Server) handleImageEdgeDetect(args json.RawMessage) (interface{}, error) {
	var a imageEdgeDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	defaults := imaging.DefaultEdgeOptions()
	low, high := int(defaults.Low), int(defaults.High)
	if a.ThresholdLow != nil {
		low = *a.ThresholdLow
	}
	if a.ThresholdHigh != nil {
		high = *a.ThresholdHigh
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.EdgeDetect(img, low, high)
}
