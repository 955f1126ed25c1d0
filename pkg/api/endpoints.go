package api

import (
	"context"
	"fmt"

	"github.com/hazyhaar/pricebook/pkg/catalog"
	"github.com/hazyhaar/pricebook/pkg/kit"
)

const (
	maxSearchLimit = 100
	maxQuoteItems  = 100
)

// Shared request/response types used by both HTTP and MCP transports.

type searchReq struct {
	Query string
	Limit int
}

type quoteReq struct {
	Items []catalog.QuoteItem
}

type searchResponse struct {
	Items []catalog.SearchItem `json:"items"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Entries int    `json:"entries"`
	Tokens  int    `json:"tokens"`
}

// Endpoints backed by the engine. Unavailability surfaces as
// catalog.ErrNotLoaded; validation problems as plain errors.

func searchEndpoint(eng *catalog.Engine) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*searchReq)
		limit := min(req.Limit, maxSearchLimit)
		items, err := eng.Search(req.Query, limit)
		if err != nil {
			return nil, err
		}
		return searchResponse{Items: items}, nil
	}
}

func quoteEndpoint(eng *catalog.Engine) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*quoteReq)
		if len(req.Items) > maxQuoteItems {
			return nil, fmt.Errorf("too many items (max %d, got %d)", maxQuoteItems, len(req.Items))
		}
		res, err := eng.Quote(req.Items)
		if err != nil {
			return nil, err
		}
		return res, nil
	}
}

func statusEndpoint(eng *catalog.Engine) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		entries, tokens := eng.Stats()
		status := "ok"
		if !eng.IsLoaded() {
			status = "unavailable"
		}
		return statusResponse{Status: status, Entries: entries, Tokens: tokens}, nil
	}
}
