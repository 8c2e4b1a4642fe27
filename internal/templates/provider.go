package templates

import (
	"context"
	"fmt"
	"image"
	"io"
	"log"

	"github.com/ironsheep/calligraphy-grader/internal/features"
	"github.com/ironsheep/calligraphy-grader/internal/imaging"
)

// Provider looks up templates and their features, memoizing both.
type Provider struct {
	source Source
	cache  *Cache
	store  FeatureStore
	logger *log.Logger
}

// NewProvider assembles a provider from parts. cache may be nil, in which
// case a fresh one is created; store is optional.
func NewProvider(source Source, cache *Cache, store FeatureStore, logger *log.Logger) *Provider {
	if cache == nil {
		cache = NewCache()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Provider{source: source, cache: cache, store: store, logger: logger}
}

// New builds the standard source chain for cfg. A font that cannot be
// loaded and a Redis server that cannot be reached are logged and skipped;
// neither stops grading.
func New(ctx context.Context, cfg Config, logger *log.Logger) *Provider {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	chain := Chain{NewPrebakedSource(cfg.Dir), NewRenderedSource(cfg.Dir)}

	fontPath := cfg.FontPath
	if fontPath == "" {
		fontPath, _ = FindFont(cfg.Dir)
	}
	if fontPath != "" {
		fs, err := NewFontSource(fontPath, cfg.GlyphSize, cfg.Padding)
		if err != nil {
			logger.Printf("Font templates disabled: %v", err)
		} else {
			logger.Printf("Loaded template font: %s", fs.Name())
			chain = append(chain, fs)
		}
	}

	var store FeatureStore
	if cfg.RedisURL != "" {
		rs, err := NewRedisStore(ctx, cfg.RedisURL, cfg.RedisTTL)
		if err != nil {
			logger.Printf("Template feature store disabled: %v", err)
		} else {
			store = rs
		}
	}

	return NewProvider(chain, NewCache(), store, logger)
}

// Cache exposes the provider's template cache.
func (p *Provider) Cache() *Cache {
	return p.cache
}

// Lookup returns the template entry for char at size. ok is false when no
// source has a template for it.
func (p *Provider) Lookup(ctx context.Context, char string, size image.Point) (*Entry, bool, error) {
	e, err := p.cache.GetOrLoad(ctx, char, size, func(ctx context.Context) (*Entry, error) {
		return p.load(ctx, char, size)
	})
	if err != nil {
		return nil, false, err
	}
	return e, e != nil, nil
}

// Features returns the template's FeatureSet.
func (p *Provider) Features(ctx context.Context, char string, size image.Point) (*features.FeatureSet, bool, error) {
	e, ok, err := p.Lookup(ctx, char, size)
	if err != nil || !ok {
		return nil, false, err
	}
	return e.Features, true, nil
}

// Template returns the template mask, white ink on black.
func (p *Provider) Template(ctx context.Context, char string, size image.Point) (*imaging.Mask, bool, error) {
	e, ok, err := p.Lookup(ctx, char, size)
	if err != nil || !ok {
		return nil, false, err
	}
	if e.Mask != nil {
		return e.Mask, true, nil
	}
	return p.source.Get(ctx, char, size)
}

// Close releases the feature store, if any.
func (p *Provider) Close() error {
	if p.store == nil {
		return nil
	}
	return p.store.Close()
}

func (p *Provider) load(ctx context.Context, char string, size image.Point) (*Entry, error) {
	if p.store != nil {
		fs, ok, err := p.store.Load(ctx, char, size)
		if err != nil {
			p.logger.Printf("Template store read failed for %q: %v", char, err)
		} else if ok {
			return &Entry{Features: fs}, nil
		}
	}

	m, ok, err := p.source.Get(ctx, char, size)
	if err != nil || !ok {
		return nil, err
	}
	fs, err := features.Extract(m)
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", char, err)
	}
	e := &Entry{Mask: m, Features: fs}

	if p.store != nil {
		if err := p.store.Save(ctx, char, size, e.Features); err != nil {
			p.logger.Printf("Template store write failed for %q: %v", char, err)
		}
	}
	return e, nil
}
