// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes onepage canvas tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/onepage/internal/board"
	"github.com/starford/onepage/internal/index"
	"github.com/starford/onepage/internal/storage"
)

const contractURI = "onepage://analysis-format"

// Server wraps the MCP server with onepage tools.
type Server struct {
	mcp          *server.MCPServer
	board        *board.Service
	catalog      index.Catalogue
	exports      storage.Provider
	allowPrivate bool

	handlers map[string]server.ToolHandlerFunc
}

// Option configures a Server.
type Option func(*Server)

// WithExports sets where export_canvas writes artifacts. Without it the tool
// returns an error.
func WithExports(p storage.Provider) Option {
	return func(s *Server) { s.exports = p }
}

// WithPrivateHosts lets import_analysis fetch from loopback addresses.
func WithPrivateHosts() Option {
	return func(s *Server) { s.allowPrivate = true }
}

// New creates a new MCP server with all onepage tools registered.
func New(svc *board.Service, catalog index.Catalogue, opts ...Option) *Server {
	s := &Server{
		board:    svc,
		catalog:  catalog,
		handlers: make(map[string]server.ToolHandlerFunc),
	}
	for _, o := range opts {
		o(s)
	}

	s.mcp = server.NewMCPServer(
		"onepage",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.registerLibraryTools()
	s.registerCanvasTools()

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Analysis Format Contract",
			mcp.WithResourceDescription("Structure of the analysis payload a canvas is built from."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) addTool(tool mcp.Tool, h server.ToolHandlerFunc) {
	s.handlers[tool.Name] = h
	s.mcp.AddTool(tool, h)
}

func (s *Server) registerLibraryTools() {
	s.addTool(mcp.NewTool("list_analyses",
		mcp.WithDescription("List analyses in the library, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum rows (default 50)")),
		mcp.WithNumber("offset", mcp.Description("Rows to skip")),
	), s.listAnalyses)

	s.addTool(mcp.NewTool("search_analyses",
		mcp.WithDescription("Full-text search through analysis titles and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchAnalyses)

	s.addTool(mcp.NewTool("import_analysis",
		mcp.WithDescription("Save an analysis payload into the library and open a canvas for it. "+
			"The payload MUST follow the analysis format contract; read it first via "+
			"get_analysis_contract or the "+contractURI+" resource."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data: URI of a JSON or YAML payload")),
		mcp.WithString("filename", mcp.Description("Library file name; derived from the URL when omitted")),
		mcp.WithString("replace", mcp.Description("Canvas id to replace with the new one")),
	), s.importAnalysis)

	s.addTool(mcp.NewTool("rename_analysis",
		mcp.WithDescription("Move an analysis within the library. Open canvases follow the new path."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Current library path")),
		mcp.WithString("to", mcp.Required(), mcp.Description("New library path ending in .json or .yaml")),
	), s.renameAnalysis)

	s.addTool(mcp.NewTool("delete_analysis",
		mcp.WithDescription("Remove an analysis from the library. Open canvases stay open."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Library path")),
	), s.deleteAnalysis)

	s.addTool(mcp.NewTool("get_analysis_contract",
		mcp.WithDescription("Returns the analysis format contract. "+
			"Call this before importing analyses to ensure correct structure."),
	), s.getAnalysisContract)
}

func (s *Server) listAnalyses(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	limit := int(getFloat(args, "limit", 50))
	offset := int(getFloat(args, "offset", 0))
	items, total, err := s.catalog.List(limit, offset)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"items": items, "total": total})
}

func (s *Server) searchAnalyses(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.catalog.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) getAnalysisContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(AnalysisFormatContract), nil
}

func (s *Server) readContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     AnalysisFormatContract,
		},
	}, nil
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func getString(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return fallback
}

func getFloat(args map[string]any, key string, fallback float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return fallback
}

func (s *Server) renameAnalysis(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := req.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := req.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.board.RenameAnalysis(from, to); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("renamed: %s -> %s", from, to)), nil
}

func (s *Server) deleteAnalysis(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.board.DeleteAnalysis(path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("deleted: " + path), nil
}
