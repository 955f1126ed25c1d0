package kit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_Order(t *testing.T) {
	var trace []string
	tag := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				trace = append(trace, name)
				return next(ctx, req)
			}
		}
	}
	ep := Chain(tag("a"), tag("b"), tag("c"))(func(context.Context, any) (any, error) {
		trace = append(trace, "endpoint")
		return nil, nil
	})

	_, err := ep(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "endpoint"}, trace)
}

func TestRequestID(t *testing.T) {
	var seen string
	ep := RequestID()(func(ctx context.Context, _ any) (any, error) {
		seen = GetRequestID(ctx)
		return nil, nil
	})

	_, _ = ep(context.Background(), nil)
	assert.Len(t, seen, 26)

	_, _ = ep(WithRequestID(context.Background(), "given"), nil)
	assert.Equal(t, "given", seen)
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ok := Logging(logger, "search")(func(context.Context, any) (any, error) { return "x", nil })
	resp, err := ok(WithTransport(context.Background(), "cli"), nil)
	require.NoError(t, err)
	assert.Equal(t, "x", resp)
	assert.Contains(t, buf.String(), "endpoint served")
	assert.Contains(t, buf.String(), "transport=cli")

	buf.Reset()
	boom := errors.New("boom")
	failing := Logging(logger, "quote")(func(context.Context, any) (any, error) { return nil, boom })
	_, err = failing(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
	out := buf.String()
	assert.True(t, strings.Contains(out, "level=WARN") && strings.Contains(out, "error=boom"), out)
	assert.Contains(t, out, "action=quote")
}

func TestTransportDefault(t *testing.T) {
	assert.Equal(t, "http", GetTransport(context.Background()))
	assert.Equal(t, "mcp", GetTransport(WithTransport(context.Background(), "mcp")))
}
