package content

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hollowware/ghostsite/internal/cache"
	"github.com/hollowware/ghostsite/internal/ghost"
)

// Resource keys recognized by the cache fetcher.
const (
	KeyPosts    = "posts"
	KeyPages    = "pages"
	KeyAuthors  = "authors"
	KeyTags     = "tags"
	KeySettings = "settings"
)

// Fixed freshness windows per collection.
const (
	PostsMaxAge    = 24 * time.Hour
	PagesMaxAge    = 10 * 24 * time.Hour
	DocsMaxAge     = 10 * 24 * time.Hour
	FooterMaxAge   = 30 * 24 * time.Hour
	AuthorsMaxAge  = 24 * time.Hour
	TagsMaxAge     = 24 * time.Hour
	SettingsMaxAge = 10 * time.Minute
)

// Loader exposes typed, normalized collections over the cache fetcher.
type Loader struct {
	fetcher *cache.Fetcher
	baseURL string
}

// NewLoader registers the remote fetch functions for every known resource
// key and returns a loader. baseURL is the CMS domain stripped from record
// URLs during normalization.
func NewLoader(client *ghost.Client, fetcher *cache.Fetcher, baseURL string) *Loader {
	fetcher.Register(KeyPosts, func(ctx context.Context, opts interface{}) (interface{}, error) {
		return client.BrowsePosts(ctx, browseOpts(opts))
	})
	fetcher.Register(KeyPages, func(ctx context.Context, opts interface{}) (interface{}, error) {
		return client.BrowsePages(ctx, browseOpts(opts))
	})
	fetcher.Register(KeyAuthors, func(ctx context.Context, opts interface{}) (interface{}, error) {
		return client.BrowseAuthors(ctx, browseOpts(opts))
	})
	fetcher.Register(KeyTags, func(ctx context.Context, opts interface{}) (interface{}, error) {
		return client.BrowseTags(ctx, browseOpts(opts))
	})
	fetcher.Register(KeySettings, func(ctx context.Context, opts interface{}) (interface{}, error) {
		return client.Settings(ctx, browseOpts(opts))
	})

	return &Loader{fetcher: fetcher, baseURL: baseURL}
}

func browseOpts(opts interface{}) ghost.BrowseOptions {
	if bo, ok := opts.(ghost.BrowseOptions); ok {
		return bo
	}
	return ghost.BrowseOptions{}
}

// Posts returns all posts with tags and authors included, normalized and
// sorted featured-first.
func (l *Loader) Posts(ctx context.Context) ([]*ghost.Post, cache.Freshness, error) {
	opts := ghost.BrowseOptions{Include: "tags,authors", Limit: "all"}

	var posts []*ghost.Post
	freshness, err := l.load(ctx, KeyPosts, PostsMaxAge, opts, &posts)
	if err != nil {
		return nil, freshness, err
	}

	NormalizePosts(posts, l.baseURL)
	SortFeaturedFirst(posts)
	return posts, freshness, nil
}

// Pages returns standalone pages, excluding footer- and docs-tagged ones.
func (l *Loader) Pages(ctx context.Context) ([]*ghost.Page, cache.Freshness, error) {
	opts := ghost.BrowseOptions{Filter: "tag:-hash-footer+tag:-hash-docs", Limit: "all"}
	return l.pages(ctx, PagesMaxAge, opts)
}

// Docs returns pages tagged as documentation.
func (l *Loader) Docs(ctx context.Context) ([]*ghost.Page, cache.Freshness, error) {
	opts := ghost.BrowseOptions{Filter: "tag:hash-docs", Limit: "all"}
	return l.pages(ctx, DocsMaxAge, opts)
}

// FooterPages returns pages tagged for the site footer.
func (l *Loader) FooterPages(ctx context.Context) ([]*ghost.Page, cache.Freshness, error) {
	opts := ghost.BrowseOptions{Filter: "tag:hash-footer", Limit: "all"}
	return l.pages(ctx, FooterMaxAge, opts)
}

func (l *Loader) pages(ctx context.Context, maxAge time.Duration, opts ghost.BrowseOptions) ([]*ghost.Page, cache.Freshness, error) {
	var pages []*ghost.Page
	freshness, err := l.load(ctx, KeyPages, maxAge, opts, &pages)
	if err != nil {
		return nil, freshness, err
	}

	NormalizePages(pages, l.baseURL)
	return pages, freshness, nil
}

// Authors returns all authors, normalized. Cross-linking against posts is
// the assembler's job since it needs both collections.
func (l *Loader) Authors(ctx context.Context) ([]*ghost.Author, cache.Freshness, error) {
	opts := ghost.BrowseOptions{Limit: "all"}

	var authors []*ghost.Author
	freshness, err := l.load(ctx, KeyAuthors, AuthorsMaxAge, opts, &authors)
	if err != nil {
		return nil, freshness, err
	}

	NormalizeAuthors(authors, l.baseURL)
	return authors, freshness, nil
}

// Tags returns all public tags, normalized.
func (l *Loader) Tags(ctx context.Context) ([]*ghost.Tag, cache.Freshness, error) {
	opts := ghost.BrowseOptions{Filter: "visibility:public", Limit: "all"}

	var tags []*ghost.Tag
	freshness, err := l.load(ctx, KeyTags, TagsMaxAge, opts, &tags)
	if err != nil {
		return nil, freshness, err
	}

	NormalizeTags(tags, l.baseURL)
	return tags, freshness, nil
}

// Settings returns the site-wide settings record, or nil when nothing is
// available.
func (l *Loader) Settings(ctx context.Context) (*ghost.Settings, cache.Freshness, error) {
	var settings *ghost.Settings
	freshness, err := l.load(ctx, KeySettings, SettingsMaxAge, ghost.BrowseOptions{}, &settings)
	if err != nil {
		return nil, freshness, err
	}
	return settings, freshness, nil
}

// load fetches key through the cache and decodes the result into out. An
// Empty result leaves out untouched.
func (l *Loader) load(ctx context.Context, key string, maxAge time.Duration, opts ghost.BrowseOptions, out interface{}) (cache.Freshness, error) {
	result, err := l.fetcher.Fetch(ctx, key, maxAge, opts)
	if err != nil {
		return result.Freshness, err
	}
	if result.Freshness == cache.Empty {
		return cache.Empty, nil
	}

	if err := json.Unmarshal(result.Data, out); err != nil {
		return result.Freshness, fmt.Errorf("decode %s collection: %w", key, err)
	}

	return result.Freshness, nil
}
