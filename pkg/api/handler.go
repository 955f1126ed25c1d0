package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hazyhaar/pricebook/pkg/catalog"
	"github.com/hazyhaar/pricebook/pkg/kit"
	"github.com/mark3labs/mcp-go/server"
	"github.com/oklog/ulid/v2"
)

// NewRouter returns an http.Handler with all price API routes. When mcpSrv
// is non-nil its tools are also served over streamable HTTP at /mcp.
func NewRouter(eng *catalog.Engine, logger *slog.Logger, mcpSrv *server.MCPServer) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	h := &handler{
		search: kit.Logging(logger, "search")(searchEndpoint(eng)),
		quote:  kit.Logging(logger, "quote")(quoteEndpoint(eng)),
		status: statusEndpoint(eng),
	}

	mux.HandleFunc("GET /v1/prices/quote", methodNotAllowed) // quote is POST only
	mux.HandleFunc("POST /v1/prices/quote", h.handleQuote)
	mux.HandleFunc("GET /v1/prices/search", h.handleSearch)
	mux.HandleFunc("GET /v1/health", h.handleHealth)
	if mcpSrv != nil {
		mux.Handle("/mcp", server.NewStreamableHTTPServer(mcpSrv))
	}

	return cors(requestID(mux))
}

type handler struct {
	search kit.Endpoint
	quote  kit.Endpoint
	status kit.Endpoint
}

// --- search ---

func (h *handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("query") {
		writeError(w, http.StatusBadRequest, "missing query")
		return
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	resp, err := h.search(r.Context(), &searchReq{Query: q.Get("query"), Limit: limit})
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- quote ---

type httpQuoteRequest struct {
	Items []catalog.QuoteItem `json:"items"`
}

func (h *handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 256*1024) // 256 KiB max
	var req httpQuoteRequest
	// An empty body is a request with no items.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.quote(r.Context(), &quoteReq{Items: req.Items})
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp, err := h.status(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	code := http.StatusOK
	if resp.(statusResponse).Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// --- helpers ---

func writeEndpointError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrNotLoaded) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// requestID propagates X-Request-ID, minting a ULID when the caller sent none.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = ulid.Make().String()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := kit.WithRequestID(kit.WithTransport(r.Context(), "http"), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
