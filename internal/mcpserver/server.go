// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes mdnotion sync tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/mdnotion/internal/apperr"
	"github.com/starford/mdnotion/internal/ledger"
	"github.com/starford/mdnotion/internal/reconcile"
	"github.com/starford/mdnotion/internal/syncservice"
)

// ContractURI is the resource URI of the front matter contract.
const ContractURI = "mdnotion://front-matter"

// SyncService is the part of syncservice.Service the tools call.
type SyncService interface {
	Plan(ctx context.Context) (reconcile.Plan, error)
	Sync(ctx context.Context, trigger string) (*syncservice.RunResult, error)
	Runs(ctx context.Context, limit int) ([]ledger.RunRow, error)
	Documents(ctx context.Context) ([]syncservice.DocumentInfo, error)
}

// Server wraps the MCP server with mdnotion tools.
type Server struct {
	mcp *server.MCPServer
	svc SyncService
}

// New creates a new MCP server with all tools registered.
func New(svc SyncService, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"mdnotion",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("plan_sync",
		mcp.WithDescription("Compute which pages a sync would create, update and archive, without writing anything."),
	), s.planSync)

	s.mcp.AddTool(mcp.NewTool("run_sync",
		mcp.WithDescription("Reconcile the markdown tree into the destination database now. "+
			"Pages whose file was removed are archived. Call plan_sync first to review the changes."),
	), s.runSync)

	s.mcp.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List recorded sync runs, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs (default 20)")),
	), s.listRuns)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the markdown documents with the properties they map to. "+
			"See the "+ContractURI+" resource for the mapping rules."),
		mcp.WithString("prefix", mcp.Description("Only documents whose path starts with this prefix")),
	), s.listDocuments)

	s.mcp.AddResource(
		mcp.NewResource(ContractURI, "Front Matter Contract",
			mcp.WithResourceDescription("How front matter keys map to page properties."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// Serve speaks the MCP stdio protocol over in and out until ctx is done or
// in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func (s *Server) planSync(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plan, err := s.svc.Plan(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if plan.Empty() {
		return mcp.NewToolResultText("nothing to do"), nil
	}
	return jsonResult(plan.Summary())
}

func (s *Server) runSync(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Sync(ctx, syncservice.TriggerMCP)
	if errors.Is(err, apperr.ErrRunInProgress) {
		return mcp.NewToolResultError("a sync is already running; try again when it finishes"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) listRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs, err := s.svc.Runs(ctx, req.GetInt("limit", ledger.DefaultRunLimit))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(runs) == 0 {
		return mcp.NewToolResultText("no runs recorded"), nil
	}
	return jsonResult(runs)
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prefix := req.GetString("prefix", "")

	docs, err := s.svc.Documents(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := make([]syncservice.DocumentInfo, 0, len(docs))
	for _, d := range docs {
		if strings.HasPrefix(d.Path, prefix) {
			out = append(out, d)
		}
	}
	return jsonResult(out)
}

func (s *Server) readContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContractURI,
			MIMEType: "text/markdown",
			Text:     FrontMatterContract,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}
