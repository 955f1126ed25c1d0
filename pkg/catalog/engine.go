package catalog

import (
	"errors"
	"log/slog"
	"sync/atomic"
)

var (
	// ErrNotLoaded is returned by queries while no catalog is published.
	ErrNotLoaded = errors.New("price catalog not loaded")
	// ErrAlreadyLoaded is returned when publishing over a live catalog.
	ErrAlreadyLoaded = errors.New("price catalog already loaded")
)

// Engine serves queries against the catalog published at startup. Until a
// load succeeds it is unloaded and every query reports ErrNotLoaded. Once
// published the snapshot is never replaced, so readers need no locking.
type Engine struct {
	current atomic.Pointer[Index]
	logger  *slog.Logger
}

// NewEngine returns an unloaded engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Publish makes ix the served catalog. It succeeds at most once.
func (e *Engine) Publish(ix *Index) error {
	if ix == nil {
		return ErrEmpty
	}
	if !e.current.CompareAndSwap(nil, ix) {
		return ErrAlreadyLoaded
	}
	e.logger.Info("price catalog loaded", "entries", ix.Len(), "tokens", ix.TokenCount())
	return nil
}

// Load parses lines and publishes the result. On error nothing is
// published and the engine stays unloaded.
func (e *Engine) Load(lines []string) error {
	ix, err := Load(lines, &LoadOptions{Logger: e.logger})
	if err != nil {
		e.logger.Warn("price catalog not loaded", "error", err)
		return err
	}
	return e.Publish(ix)
}

// LoadDir loads the catalog directory dir and publishes it.
func (e *Engine) LoadDir(dir string) error {
	ix, m, err := LoadDir(dir, e.logger)
	if err != nil {
		e.logger.Warn("price catalog not loaded", "dir", dir, "error", err)
		return err
	}
	e.logger.Info("price catalog source", "id", m.ID, "version", m.Version, "source", m.Source)
	return e.Publish(ix)
}

// IsLoaded reports whether a catalog is available for queries.
func (e *Engine) IsLoaded() bool {
	return e.current.Load() != nil
}

// Search returns up to limit (description, price) pairs for query.
func (e *Engine) Search(query string, limit int) ([]SearchItem, error) {
	ix := e.current.Load()
	if ix == nil {
		return nil, ErrNotLoaded
	}
	return ix.Search(query, limit), nil
}

// Quote prices a batch of free-text items.
func (e *Engine) Quote(items []QuoteItem) (*QuoteResult, error) {
	ix := e.current.Load()
	if ix == nil {
		return nil, ErrNotLoaded
	}
	return ix.Quote(items), nil
}

// Stats reports entry and token counts; both are zero while unloaded.
func (e *Engine) Stats() (entries, tokens int) {
	ix := e.current.Load()
	if ix == nil {
		return 0, 0
	}
	return ix.Len(), ix.TokenCount()
}
