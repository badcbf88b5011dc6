package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/foundersai25/talkdoc-core/internal/imaging"
	"github.com/foundersai25/talkdoc-core/internal/scan"
	"github.com/sirupsen/logrus"
)

// Server handles MCP protocol communication
type Server struct {
	cache   *imaging.ImageCache
	opts    scan.Options
	save    scan.SaveOptions
	outDir  string
	version string
	log     logrus.FieldLogger
	in      io.Reader
	out     io.Writer
}

// Option customises a Server.
type Option func(*Server)

// WithScanOptions sets the detection and enhancement defaults for the
// document tools. Tool arguments override them per call.
func WithScanOptions(opts scan.Options) Option {
	return func(s *Server) { s.opts = opts }
}

// WithSaveOptions sets the defaults used when tools write files.
func WithSaveOptions(opts scan.SaveOptions) Option {
	return func(s *Server) { s.save = opts }
}

// WithOutputDir sets the directory document_scan writes to when the call
// does not name one.
func WithOutputDir(dir string) Option {
	return func(s *Server) { s.outDir = dir }
}

// WithLogger sets the logger. It must not write to the protocol stream.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) { s.log = l }
}

// WithVersion sets the version reported in serverInfo.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithIO replaces stdin and stdout as the protocol stream.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(s *Server) {
		s.in = in
		s.out = out
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

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a new MCP server instance
func New(options ...Option) *Server {
	s := &Server{
		cache:   imaging.NewImageCache(),
		opts:    scan.DefaultOptions(),
		save:    scan.SaveOptions{DPI: scan.DefaultPDFDPI},
		outDir:  "output",
		version: "dev",
		log:     logrus.StandardLogger(),
		in:      os.Stdin,
		out:     os.Stdout,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Run starts the MCP server, reading requests until the input ends
func (s *Server) Run() error {
	scanner := bufio.NewScanner(s.in)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(s.out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.WithError(err).Warn("Failed to parse request")
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.log.WithError(err).Error("Failed to encode response")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	s.log.WithField("method", req.Method).Debug("Request")

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
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
				"name":    "docscan-mcp",
				"version": s.version,
			},
		},
	}
}
