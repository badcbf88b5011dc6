package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func cornersProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": "Four document corners in working image coordinates, any order, as returned by document_detect",
		"minItems":    4,
		"maxItems":    4,
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"x": map[string]interface{}{"type": "number"},
				"y": map[string]interface{}{"type": "number"},
			},
			"required": []string{"x", "y"},
		},
	}
}

func thresholdProperties(props map[string]interface{}) map[string]interface{} {
	props["min_area_ratio"] = map[string]interface{}{
		"type":        "number",
		"description": "Fraction of the image the page must cover. Default 0.25",
		"default":     0.25,
	}
	props["max_angle_range"] = map[string]interface{}{
		"type":        "number",
		"description": "Largest spread between the page's interior angles, in degrees. Default 40",
		"default":     40,
	}
	return props
}

func enhanceProperties(props map[string]interface{}) map[string]interface{} {
	props["binarize"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Apply adaptive thresholding for a black and white page",
		"default":     false,
	}
	props["color"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Keep the colour warp instead of the sharpened grayscale page",
		"default":     false,
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The image stays cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Document Operations
		{
			Name:        "document_detect",
			Description: "Find the document page in a photograph. Returns the four corners in working image coordinates (the photo scaled to 500 px high) and in original coordinates, where they came from, and whether detection fell back to the whole image. Optionally returns a PNG preview with the outline drawn.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": thresholdProperties(map[string]interface{}{
					"path": pathProperty(),
					"overlay": map[string]interface{}{
						"type":        "boolean",
						"description": "Include a base64 PNG preview of the working image with the outline",
						"default":     false,
					},
					"overlay_color": map[string]interface{}{
						"type":        "string",
						"description": "Outline colour as #RRGGBB. Default #FFFF00",
						"default":     "#FFFF00",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "document_rectify",
			Description: "Straighten the document in a photograph into a flat page. Uses the supplied corners, or detects them when omitted. Writes the page to output_path and/or a PDF to pdf_path; with neither, returns the page as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": enhanceProperties(thresholdProperties(map[string]interface{}{
					"path":    pathProperty(),
					"corners": cornersProperty(),
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Where to write the page image; the extension picks the format",
					},
					"pdf_path": map[string]interface{}{
						"type":        "string",
						"description": "Where to write a single page PDF of the page",
					},
				})),
				"required": []string{"path"},
			},
		},
		{
			Name:        "document_scan",
			Description: "Detect, straighten and enhance the document in a photograph and write the page image plus a single page PDF, named after the photo, into output_dir.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": enhanceProperties(thresholdProperties(map[string]interface{}{
					"path": pathProperty(),
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory for the results. Default is the server's configured output directory",
					},
					"overlay": map[string]interface{}{
						"type":        "boolean",
						"description": "Also write the detected outline drawn on the working image",
						"default":     false,
					},
				})),
				"required": []string{"path"},
			},
		},

		// Diagnostics
		{
			Name:        "image_edge_detect",
			Description: "Run the edge detector used for document detection and return the edge map as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"threshold_low": map[string]interface{}{
						"type":        "integer",
						"description": "Lower hysteresis threshold. Default 0",
						"default":     0,
					},
					"threshold_high": map[string]interface{}{
						"type":        "integer",
						"description": "Upper hysteresis threshold. Default 84",
						"default":     84,
					},
				},
				"required": []string{"path"},
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
