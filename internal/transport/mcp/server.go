package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/dirsearch/internal/domain"
	"github.com/kailas-cloud/dirsearch/internal/tool"
	"github.com/kailas-cloud/dirsearch/internal/version"
)

// searchToolName is the tool exposed to MCP clients.
const searchToolName = "search_directory"

// Server exposes the directory search tool over the Model Context Protocol.
// One server acts as one configured caller; the caller's allow-list bounds
// every invocation.
type Server struct {
	server  *mcp.Server
	adapter *tool.Adapter
	caller  tool.Caller
	logger  *zap.Logger
}

// SearchInput is the tool input schema.
type SearchInput struct {
	List    string            `json:"list" jsonschema:"Name of the directory list to search"`
	Query   string            `json:"query,omitempty" jsonschema:"Free-text search query. Leave empty to browse the list."`
	Tag     string            `json:"tag,omitempty" jsonschema:"Require entries to carry this tag (exact match)"`
	Filters map[string]string `json:"filters,omitempty" jsonschema:"Attribute filters as field:value pairs. Only schema-declared searchable fields are accepted."`
}

// NewServer creates an MCP server for the given caller. guidanceText is
// appended to the tool description so clients see the schema's search
// strategy up front.
func NewServer(adapter *tool.Adapter, caller tool.Caller, guidanceText string, logger *zap.Logger) *Server {
	s := &Server{
		adapter: adapter,
		caller:  caller,
		logger:  logger,
	}

	srv := mcp.NewServer(
		&mcp.Implementation{
			Name:    "dirsearch",
			Version: version.Version,
		},
		nil,
	)

	description := "Search a curated directory list and get matching entries with their contact details."
	if guidanceText != "" {
		description += "\n\n" + guidanceText
	}

	mcp.AddTool(srv, &mcp.Tool{
		Name:        searchToolName,
		Description: description,
	}, s.handleSearch)

	s.server = srv
	return s
}

// Run serves MCP requests until ctx is done.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.logger.Info("mcp server starting",
		zap.String("caller", s.caller.Name),
		zap.String("tenant", s.caller.Tenant),
	)
	if err := s.server.Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func (s *Server) handleSearch(
	ctx context.Context, req *mcp.CallToolRequest, input SearchInput,
) (*mcp.CallToolResult, any, error) {
	text, err := s.adapter.Invoke(ctx, s.caller, tool.Request{
		List:    input.List,
		Query:   input.Query,
		Tag:     input.Tag,
		Filters: input.Filters,
	})
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: toolErrorMessage(err)},
			},
		}, nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

// toolErrorMessage keeps internal detail out of tool errors while leaving
// enough for the agent to correct its call.
func toolErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrAccessDenied):
		return "access denied: this list is not available to you"
	case errors.Is(err, domain.ErrListNotFound):
		return "list not found"
	case errors.Is(err, domain.ErrUnknownFilterField):
		return err.Error()
	default:
		return "search failed"
	}
}
