package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atinylittleshell/ghostwrite/pkg/ghost"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	snippetRunes = 100
	cacheTTL     = 30 * time.Second
	recentWindow = 24 * time.Hour
)

type EnrichOptions struct {
	NoteQuery bool
	Backlinks bool
	Limit     int
}

// Enricher looks up notes related to the text at the cursor. Query results are
// memoized for a short while since every regeneration asks the same question.
type Enricher struct {
	store  *Store
	cache  *cache.Cache
	logger *zap.Logger

	mu      sync.RWMutex
	options EnrichOptions
}

var _ ghost.Enricher = (*Enricher)(nil)

func NewEnricher(store *Store, options EnrichOptions, logger *zap.Logger) *Enricher {
	e := &Enricher{
		store:  store,
		cache:  cache.New(cacheTTL, 2*cacheTTL),
		logger: logger,
	}
	e.SetOptions(options)
	return e
}

// SetOptions may be called while queries run.
func (e *Enricher) SetOptions(options EnrichOptions) {
	if options.Limit <= 0 {
		options.Limit = 5
	}
	e.mu.Lock()
	e.options = options
	e.mu.Unlock()
	e.cache.Flush()
}

// Invalidate drops memoized results, e.g. after the notes were saved.
func (e *Enricher) Invalidate() {
	e.cache.Flush()
}

// RelatedNotes returns matches for the first keyword around the cursor and the
// blocks linking to the current block. When the note query finds nothing the
// blocks edited in the last day stand in. Errors are returned only when
// nothing could be queried.
func (e *Enricher) RelatedNotes(ctx context.Context, snapshot ghost.Snapshot) ([]string, error) {
	e.mu.RLock()
	options := e.options
	e.mu.RUnlock()

	var (
		notes []string
		errs  []error
	)

	if options.NoteQuery {
		source := snapshot.Selection
		if source == "" {
			source = snapshot.Before + snapshot.After
		}
		if keywords := Keywords(source); len(keywords) > 0 {
			hits, err := e.cached(fmt.Sprintf("search:%d:%s", options.Limit, keywords[0]), func() ([]Hit, error) {
				return e.store.SearchBlocks(ctx, keywords[0], options.Limit+1)
			})
			if err != nil {
				errs = append(errs, err)
			}
			notes = append(notes, format(hits, snapshot.BlockID, options.Limit)...)
		}
	}

	if options.Backlinks && snapshot.BlockID != "" {
		hits, err := e.cached(fmt.Sprintf("backlinks:%d:%s", options.Limit, snapshot.BlockID), func() ([]Hit, error) {
			return e.store.Backlinks(ctx, snapshot.BlockID, options.Limit)
		})
		if err != nil {
			errs = append(errs, err)
		}
		notes = append(notes, format(hits, snapshot.BlockID, options.Limit)...)
	}

	if options.NoteQuery && len(notes) == 0 {
		hits, err := e.cached(fmt.Sprintf("recent:%d", options.Limit), func() ([]Hit, error) {
			return e.store.RecentBlocks(ctx, time.Now().Add(-recentWindow), options.Limit+1)
		})
		if err != nil {
			errs = append(errs, err)
		}
		notes = append(notes, format(hits, snapshot.BlockID, options.Limit)...)
	}

	if len(notes) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return notes, nil
}

func (e *Enricher) cached(key string, query func() ([]Hit, error)) ([]Hit, error) {
	if v, ok := e.cache.Get(key); ok {
		return v.([]Hit), nil
	}
	hits, err := query()
	if err != nil {
		return nil, err
	}
	e.cache.Set(key, hits, cache.DefaultExpiration)
	e.logger.Debug("related notes query", zap.String("key", key), zap.Int("hits", len(hits)))
	return hits, nil
}

// format renders hits as "[title] snippet", skipping the block being edited.
func format(hits []Hit, skipBlockID string, limit int) []string {
	var out []string
	for _, hit := range hits {
		if hit.BlockID == skipBlockID {
			continue
		}
		if len(out) >= limit {
			break
		}
		out = append(out, fmt.Sprintf("[%s] %s", hit.Title, Snippet(hit.Content)))
	}
	return out
}

// Snippet flattens content to one line of at most 100 runes.
func Snippet(content string) string {
	runes := []rune(strings.ReplaceAll(content, "\n", " "))
	if len(runes) > snippetRunes {
		runes = runes[:snippetRunes]
	}
	return string(runes)
}
