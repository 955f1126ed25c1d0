package importer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

// checkWorkers bounds the number of HEAD requests in flight.
const checkWorkers = 4

// Checker performs periodic HEAD requests against all registered import sources
// and records their availability.
type Checker struct {
	sources  *SourceDB
	logger   *slog.Logger
	interval time.Duration
	client   *http.Client
}

// NewChecker creates a Checker that will verify source URLs every interval.
func NewChecker(sources *SourceDB, logger *slog.Logger, interval time.Duration) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		sources:  sources,
		logger:   logger,
		interval: interval,
		client: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Start runs an immediate check then repeats every interval until ctx is cancelled.
func (c *Checker) Start(ctx context.Context) {
	c.CheckAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAll(ctx)
		}
	}
}

// CheckAll HEADs every source URL through a bounded worker pool and persists
// each result.
func (c *Checker) CheckAll(ctx context.Context) {
	sources, err := c.sources.ListSources()
	if err != nil {
		c.logger.Error("source check: list sources failed", "error", err)
		return
	}
	if len(sources) == 0 {
		return
	}

	pool, err := ants.NewPool(min(checkWorkers, len(sources)))
	if err != nil {
		c.logger.Error("source check: worker pool", "error", err)
		return
	}
	defer pool.Release()

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		ok, failed int
	)
	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			up := c.checkSource(ctx, src)
			mu.Lock()
			if up {
				ok++
			} else {
				failed++
			}
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			c.logger.Error("source check: submit failed", "adapter", src.AdapterID, "error", err)
		}
	}
	wg.Wait()

	c.logger.Info("source check complete", "total", ok+failed, "ok", ok, "failed", failed)
}

// checkSource checks one source, stores the outcome and reports whether it
// answered with a 2xx or 3xx status.
func (c *Checker) checkSource(ctx context.Context, src Source) bool {
	status, checkErr := c.checkOne(ctx, src.SourceURL)
	errMsg := ""
	if checkErr != nil {
		errMsg = checkErr.Error()
	}

	if err := c.sources.UpdateCheck(src.AdapterID, status, errMsg); err != nil {
		c.logger.Error("source check: update failed", "adapter", src.AdapterID, "error", err)
	}

	if status >= 200 && status < 400 {
		return true
	}
	c.logger.Warn("source unreachable",
		"adapter", src.AdapterID,
		"url", src.SourceURL,
		"status", status,
		"error", errMsg,
	)
	return false
}

// checkOne performs a single HEAD request and returns the HTTP status code.
// On network error, status is 0.
func (c *Checker) checkOne(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HEAD %s: %w", url, err)
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
