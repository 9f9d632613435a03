package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Form extraction
		{
			Name: "form_extract",
			Description: "Extract the fields of a scanned form using a template of field boxes. " +
				"Returns accepted fields, rejected fields with a reason (NO_READING, LOW_CONFIDENCE, TOO_SHORT, " +
				"INVALID_BBOX, REGION_TOO_SMALL, RECOGNITION_FAILED), template field order and required fields that were not accepted.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path":    pathProperty("Absolute path to the scanned form image (PNG, JPEG, GIF, TIFF or BMP)"),
					"template_path": pathProperty("Absolute path to the JSON or YAML template"),
					"language_hint": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code for fields without their own ocr.lang (e.g. 'eng', 'hin', 'eng+nep')",
					},
					"confidence_threshold": map[string]interface{}{
						"type":        "number",
						"minimum":     0,
						"maximum":     1,
						"description": "Minimum confidence for fields without conf_required. Default 0.7",
					},
				},
				"required": []string{"image_path", "template_path"},
			},
		},

		// Template management
		{
			Name:        "form_template_validate",
			Description: "Parse and validate a form template. Reports the field ids it declares or the reason it is invalid.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"template_path": pathProperty("Absolute path to the JSON or YAML template"),
				},
				"required": []string{"template_path"},
			},
		},
		{
			Name: "form_template_bootstrap",
			Description: "Draft a template from a filled sample scan: one text_line field per recognized line, " +
				"with pixel and millimetre boxes. Optionally writes it to output_path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path": pathProperty("Absolute path to the sample scan"),
					"form_name": map[string]interface{}{
						"type":        "string",
						"description": "Name recorded on the template. Defaults to the image file name",
					},
					"output_path": pathProperty("Where to save the template (.json, .yaml or .yml). Omit to only return it"),
					"dpi": map[string]interface{}{
						"type":        "integer",
						"description": "Scan resolution used for the millimetre boxes. Default 300",
					},
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code. Default 'eng'",
					},
				},
				"required": []string{"image_path"},
			},
		},

		// Image helpers
		{
			Name:        "image_ocr_full",
			Description: "Extract all text from an image with line and word bounding boxes and confidence scores.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code. Default 'eng'",
						"default":     "eng",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_info",
			Description: "Get the dimensions, format and file size of a scan.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
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
