package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ironsheep/form-tools-mcp/internal/extract"
	"github.com/ironsheep/form-tools-mcp/internal/imaging"
	"github.com/ironsheep/form-tools-mcp/internal/ocr"
	"github.com/ironsheep/form-tools-mcp/internal/template"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "form_extract").
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
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.toolError(req.ID, err)
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
	case "form_extract":
		return s.handleFormExtract(ctx, args)
	case "form_template_validate":
		return s.handleFormTemplateValidate(args)
	case "form_template_bootstrap":
		return s.handleFormTemplateBootstrap(ctx, args)

	case "image_ocr_full":
		return s.handleImageOCRFull(ctx, args)
	case "image_info":
		return s.handleImageInfo(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
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

// toolError reports a failed tool call. Extraction errors carry their kind
// so clients can tell a missing image from a broken template.
func (s *Server) toolError(id interface{}, err error) *MCPResponse {
	kind, ok := extract.KindOf(err)
	if !ok {
		return s.errorResponse(id, -32000, "Tool execution failed", err.Error())
	}
	return s.errorResponse(id, -32000, "Tool execution failed", map[string]interface{}{
		"kind":  kind,
		"error": err.Error(),
	})
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return errors.New("missing arguments")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func requirePath(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}

// === Form Handlers ===

type formExtractArgs struct {
	ImagePath           string   `json:"image_path"`
	TemplatePath        string   `json:"template_path"`
	LanguageHint        string   `json:"language_hint"`
	ConfidenceThreshold *float64 `json:"confidence_threshold"`
}

func (s *Server) handleFormExtract(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a formExtractArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("image_path", a.ImagePath); err != nil {
		return nil, err
	}
	if err := requirePath("template_path", a.TemplatePath); err != nil {
		return nil, err
	}
	if t := a.ConfidenceThreshold; t != nil && (*t < 0 || *t > 1) {
		return nil, fmt.Errorf("confidence_threshold %v outside [0,1]", *t)
	}
	if s.engine == nil {
		return nil, ocr.ErrOCRUnavailable
	}

	return s.engine.Run(ctx, extract.Request{
		ImagePath:           a.ImagePath,
		TemplatePath:        a.TemplatePath,
		LanguageHint:        a.LanguageHint,
		ConfidenceThreshold: a.ConfidenceThreshold,
	})
}

type formTemplateValidateArgs struct {
	TemplatePath string `json:"template_path"`
}

// TemplateReport is the result of form_template_validate.
type TemplateReport struct {
	Valid    bool     `json:"valid"`
	FormName string   `json:"form_name,omitempty"`
	Version  string   `json:"version,omitempty"`
	DPI      int      `json:"dpi,omitempty"`
	Fields   []string `json:"fields,omitempty"`
	Required []string `json:"required,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// An invalid template is a successful call with Valid false.
func (s *Server) handleFormTemplateValidate(args json.RawMessage) (interface{}, error) {
	var a formTemplateValidateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("template_path", a.TemplatePath); err != nil {
		return nil, err
	}

	tpl, err := template.Load(a.TemplatePath)
	if err != nil {
		return &TemplateReport{Valid: false, Error: err.Error()}, nil
	}

	report := &TemplateReport{
		Valid:    true,
		FormName: tpl.FormName,
		Version:  tpl.Version,
		DPI:      tpl.Metadata.DPI,
		Fields:   make([]string, 0, len(tpl.Fields)),
	}
	for _, f := range tpl.Fields {
		report.Fields = append(report.Fields, f.ID)
		if f.Validate.Required {
			report.Required = append(report.Required, f.ID)
		}
	}
	return report, nil
}

type formTemplateBootstrapArgs struct {
	ImagePath  string `json:"image_path"`
	FormName   string `json:"form_name"`
	OutputPath string `json:"output_path"`
	DPI        int    `json:"dpi"`
	Language   string `json:"language"`
}

func (s *Server) handleFormTemplateBootstrap(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a formTemplateBootstrapArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("image_path", a.ImagePath); err != nil {
		return nil, err
	}
	if a.DPI == 0 {
		a.DPI = s.bootstrapDPI
	}
	if a.Language == "" {
		a.Language = s.bootstrapLang
	}
	if a.FormName == "" {
		a.FormName = filepath.Base(a.ImagePath)
	}
	if s.ocr == nil {
		return nil, ocr.ErrOCRUnavailable
	}

	img, err := s.cache.Load(a.ImagePath)
	if err != nil {
		return nil, err
	}
	res, err := s.ocr.ExtractLines(ctx, img, a.Language)
	if err != nil {
		return nil, err
	}

	tpl, err := template.Bootstrap(a.FormName, template.DetectionsFromLines(res.Lines), template.BootstrapOptions{
		DPI:       a.DPI,
		Language:  a.Language,
		ImagePath: a.ImagePath,
	})
	if err != nil {
		return nil, err
	}

	if a.OutputPath != "" {
		if err := template.Save(a.OutputPath, tpl); err != nil {
			return nil, err
		}
		s.logger.Info("template written", "path", a.OutputPath, "fields", len(tpl.Fields))
	}
	return tpl, nil
}

// === Image Handlers ===

type imageOCRFullArgs struct {
	Path     string `json:"path"`
	Language string `json:"language"`
}

func (s *Server) handleImageOCRFull(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageOCRFullArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}
	if s.ocr == nil {
		return nil, ocr.ErrOCRUnavailable
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return s.ocr.ExtractLines(ctx, img, a.Language)
}

type imageInfoArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageInfoArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}
