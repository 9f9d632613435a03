package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"

	"github.com/ironsheep/form-tools-mcp/internal/extract"
	"github.com/ironsheep/form-tools-mcp/internal/imaging"
	"github.com/ironsheep/form-tools-mcp/internal/ocr"
)

// OCR is what the server needs from the recognizer: region reads for
// extraction and whole-page lines for bootstrap and image_ocr_full.
type OCR interface {
	ocr.Engine
	ExtractLines(ctx context.Context, img image.Image, language string) (*ocr.OCRResult, error)
}

// Server handles MCP protocol communication
type Server struct {
	cache  *imaging.ImageCache
	ocr    OCR
	engine *extract.Engine
	logger *slog.Logger

	version        string
	extractOptions []extract.Option
	bootstrapDPI   int
	bootstrapLang  string
}

// Option configures a Server.
type Option func(*Server)

// WithOCR sets the recognizer. Without one the OCR-backed tools fail with
// ocr.ErrOCRUnavailable.
func WithOCR(o OCR) Option {
	return func(s *Server) { s.ocr = o }
}

// WithLogger sets the logger. It must not write to stdout.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithVersion sets the version reported in serverInfo.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithExtractOptions passes options through to the extraction engine.
func WithExtractOptions(opts ...extract.Option) Option {
	return func(s *Server) { s.extractOptions = append(s.extractOptions, opts...) }
}

// WithBootstrapDefaults sets the DPI and language used by
// form_template_bootstrap when the call does not name them.
func WithBootstrapDefaults(dpi int, language string) Option {
	return func(s *Server) {
		s.bootstrapDPI = dpi
		s.bootstrapLang = language
	}
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance
func New(opts ...Option) *Server {
	s := &Server{
		cache:   imaging.NewImageCache(),
		logger:  slog.Default(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.ocr != nil {
		engineOpts := append([]extract.Option{
			extract.WithLogger(s.logger),
			extract.WithImageLoader(s.cache.Load),
		}, s.extractOptions...)
		s.engine = extract.New(s.ocr, engineOpts...)
	}
	return s
}

// Run serves MCP on stdin/stdout until stdin closes.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from in and writes responses to
// out. It returns when in is exhausted or ctx is canceled; cancellation does
// not wait for a pending read on in.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			scanErr <- err
		}
	}()

	encoder := json.NewEncoder(out)

	for {
		var line []byte
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return fmt.Errorf("scanner error: %w", err)
				default:
				}
				return ctx.Err()
			}
			line = l
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("failed to parse request", "error", err)
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("failed to encode response", "error", err)
			}
		}
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.logger.Debug("request", "method", req.Method, "id", req.ID)

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "form-tools-mcp",
				"version": s.version,
			},
		},
	}
}
