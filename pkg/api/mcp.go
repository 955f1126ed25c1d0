package api

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/pricebook/pkg/catalog"
	"github.com/hazyhaar/pricebook/pkg/kit"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer returns an MCP server exposing the price tools.
func NewMCPServer(eng *catalog.Engine, logger *slog.Logger, version string) *server.MCPServer {
	srv := server.NewMCPServer("pricebook", version, server.WithToolCapabilities(false))
	RegisterMCPTools(srv, eng, logger)
	return srv
}

// RegisterMCPTools registers the three price MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, eng *catalog.Engine, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	registerSearch(srv, eng, logger)
	registerQuote(srv, eng, logger)
	registerStatus(srv, eng)
}

func registerSearch(srv *server.MCPServer, eng *catalog.Engine, logger *slog.Logger) {
	tool := mcp.NewTool("search_prices",
		mcp.WithDescription("Search the price catalog by free text and return matching products with their list price, best match first."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Product text to search for (e.g. arroz integral)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10, max 100)")),
	)

	mw := kit.Chain(kit.RequestID(), kit.Logging(logger, "search"))
	kit.RegisterMCPTool(srv, tool, mw(searchEndpoint(eng)), func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		query, _ := args["query"].(string)
		if strings.TrimSpace(query) == "" {
			return nil, fmt.Errorf("query is required")
		}
		limit := 0
		if v, ok := args["limit"].(float64); ok {
			limit = int(v)
		}
		return &kit.MCPDecodeResult{Request: &searchReq{Query: query, Limit: limit}, EnrichCtx: callerRequestID(req)}, nil
	})
}

func registerQuote(srv *server.MCPServer, eng *catalog.Engine, logger *slog.Logger) {
	tool := mcp.NewTool("quote_prices",
		mcp.WithDescription("Price a shopping list (up to 100 items). Each item is matched to the catalog; ambiguous items come back with candidates and are left out of the estimated total."),
		mcp.WithString("items", mcp.Required(), mcp.Description("Item names, one per line")),
	)

	mw := kit.Chain(kit.RequestID(), kit.Logging(logger, "quote"))
	kit.RegisterMCPTool(srv, tool, mw(quoteEndpoint(eng)), func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		names, err := decodeItemNames(req.GetArguments()["items"])
		if err != nil {
			return nil, err
		}
		items := make([]catalog.QuoteItem, len(names))
		for i, n := range names {
			items[i] = catalog.QuoteItem{Name: n}
		}
		return &kit.MCPDecodeResult{Request: &quoteReq{Items: items}, EnrichCtx: callerRequestID(req)}, nil
	})
}

func registerStatus(srv *server.MCPServer, eng *catalog.Engine) {
	tool := mcp.NewTool("catalog_status",
		mcp.WithDescription("Report whether the price catalog is loaded, with entry and token counts."),
	)

	kit.RegisterMCPTool(srv, tool, statusEndpoint(eng), func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{EnrichCtx: callerRequestID(req)}, nil
	})
}

// callerRequestID keeps a requestId sent in the call's _meta as the request
// ID of the endpoint call. Nil when the caller sent none.
func callerRequestID(req mcp.CallToolRequest) func(context.Context) context.Context {
	if req.Params.Meta == nil {
		return nil
	}
	id, _ := req.Params.Meta.AdditionalFields["requestId"].(string)
	if id == "" {
		return nil
	}
	return func(ctx context.Context) context.Context {
		return kit.WithRequestID(ctx, id)
	}
}

// decodeItemNames accepts either a newline-separated string or a JSON array
// of strings. Blank names are dropped.
func decodeItemNames(v any) ([]string, error) {
	var raw []string
	switch items := v.(type) {
	case string:
		raw = strings.Split(items, "\n")
	case []any:
		for _, it := range items {
			s, ok := it.(string)
			if !ok {
				return nil, fmt.Errorf("items must be strings")
			}
			raw = append(raw, s)
		}
	default:
		return nil, fmt.Errorf("items is required")
	}

	names := make([]string, 0, len(raw))
	for _, n := range raw {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names, nil
}
