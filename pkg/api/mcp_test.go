package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/hazyhaar/pricebook/pkg/catalog"
	"github.com/hazyhaar/pricebook/pkg/kit"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	IsError bool `json:"isError"`
}

// callTool sends a tools/call message through the server and returns the
// single text content of the result.
func callTool(t *testing.T, srv *server.MCPServer, name string, args map[string]any) (string, bool) {
	t.Helper()
	return callToolMeta(t, srv, name, args, nil)
}

func callToolMeta(t *testing.T, srv *server.MCPServer, name string, args, meta map[string]any) (string, bool) {
	t.Helper()
	params := map[string]any{"name": name, "arguments": args}
	if meta != nil {
		params["_meta"] = meta
	}
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  params,
	})
	require.NoError(t, err)

	resp := srv.HandleMessage(context.Background(), msg)
	require.NotNil(t, resp)
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var envelope struct {
		Result toolResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(data, &envelope))
	require.Len(t, envelope.Result.Content, 1, string(data))
	return envelope.Result.Content[0].Text, envelope.Result.IsError
}

func TestMCP_SearchPrices(t *testing.T) {
	srv := NewMCPServer(loadedEngine(t), quietLogger(), "test")

	text, isErr := callTool(t, srv, "search_prices", map[string]any{"query": "arroz", "limit": 1})
	require.False(t, isErr, text)
	assert.JSONEq(t, `{"items":[{"description":"Arroz blanco 1kg","price":1000}]}`, text)

	text, isErr = callTool(t, srv, "search_prices", map[string]any{"query": "  "})
	assert.True(t, isErr)
	assert.Contains(t, text, "query is required")
}

func TestMCP_QuotePrices(t *testing.T) {
	srv := NewMCPServer(loadedEngine(t), quietLogger(), "test")

	text, isErr := callTool(t, srv, "quote_prices", map[string]any{"items": "fideos\n\narroz\n"})
	require.False(t, isErr, text)
	var res catalog.QuoteResult
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	require.Len(t, res.Items, 2)
	assert.False(t, res.Items[0].Ambiguous)
	assert.True(t, res.Items[1].Ambiguous)
	assert.InDelta(t, 500.0, res.TotalEstimated, 1e-9)

	text, isErr = callTool(t, srv, "quote_prices", map[string]any{"items": []any{"fideos"}})
	require.False(t, isErr, text)
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	assert.Len(t, res.Items, 1)
}

func TestMCP_Unloaded(t *testing.T) {
	srv := NewMCPServer(catalog.NewEngine(quietLogger()), quietLogger(), "test")

	text, isErr := callTool(t, srv, "search_prices", map[string]any{"query": "arroz"})
	assert.True(t, isErr)
	assert.Equal(t, catalog.ErrNotLoaded.Error(), text)

	text, isErr = callTool(t, srv, "catalog_status", map[string]any{})
	require.False(t, isErr, text)
	assert.JSONEq(t, `{"status":"unavailable","entries":0,"tokens":0}`, text)
}

func TestDecodeItemNames(t *testing.T) {
	names, err := decodeItemNames(" leche \n\n pan ")
	require.NoError(t, err)
	assert.Equal(t, []string{"leche", "pan"}, names)

	names, err = decodeItemNames([]any{"leche", " ", "yerba"})
	require.NoError(t, err)
	assert.Equal(t, []string{"leche", "yerba"}, names)

	_, err = decodeItemNames([]any{"leche", 3.0})
	assert.Error(t, err)
	_, err = decodeItemNames(nil)
	assert.Error(t, err)
}

func TestMCP_CallerRequestID(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	srv := NewMCPServer(loadedEngine(t), logger, "test")

	text, isErr := callToolMeta(t, srv, "search_prices", map[string]any{"query": "fideos"},
		map[string]any{"requestId": "order-7781"})
	require.False(t, isErr, text)
	assert.Contains(t, logs.String(), "request_id=order-7781")
	assert.Contains(t, logs.String(), "transport=mcp")

	logs.Reset()
	_, isErr = callTool(t, srv, "quote_prices", map[string]any{"items": "fideos"})
	require.False(t, isErr)
	assert.Contains(t, logs.String(), "request_id=")
	assert.NotContains(t, logs.String(), "order-7781")
}

func TestCallerRequestID(t *testing.T) {
	var req mcp.CallToolRequest
	assert.Nil(t, callerRequestID(req))

	req.Params.Meta = &mcp.Meta{AdditionalFields: map[string]any{"requestId": 42.0}}
	assert.Nil(t, callerRequestID(req))

	req.Params.Meta = &mcp.Meta{AdditionalFields: map[string]any{"requestId": "abc"}}
	enrich := callerRequestID(req)
	require.NotNil(t, enrich)
	assert.Equal(t, "abc", kit.GetRequestID(enrich(context.Background())))
}
