// Package site assembles normalized collections into the data exposed to
// templates, and provides the template helper functions.
package site

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hollowware/ghostsite/internal/cache"
	"github.com/hollowware/ghostsite/internal/content"
	"github.com/hollowware/ghostsite/internal/ghost"
	"github.com/hollowware/ghostsite/internal/logger"
)

// Site is the full set of named collections handed to the template layer.
type Site struct {
	Settings    *ghost.Settings
	Posts       []*ghost.Post
	Pages       []*ghost.Page
	Docs        []*ghost.Page
	FooterPages []*ghost.Page
	Authors     []*ghost.Author
	Tags        []*ghost.Tag
	BuiltAt     time.Time

	// Freshness records how each collection was obtained, for logging and
	// the preview server's status endpoint.
	Freshness map[string]cache.Freshness
}

// Assembler wires the loader's collections together.
type Assembler struct {
	loader  *content.Loader
	siteURL string
	log     *logger.Logger
}

// NewAssembler creates an assembler. siteURL, when non-empty, overrides the
// URL reported by the CMS settings.
func NewAssembler(loader *content.Loader, siteURL string, log *logger.Logger) *Assembler {
	return &Assembler{loader: loader, siteURL: siteURL, log: log}
}

// Assemble fetches every collection concurrently, cross-links authors and
// tags against posts, and returns the assembled site. Collections the cache
// could not supply at all come back empty; only infrastructure failures
// (cache disk errors, undecodable data) are errors.
func (a *Assembler) Assemble(ctx context.Context) (*Site, error) {
	s := &Site{
		BuiltAt:   time.Now(),
		Freshness: make(map[string]cache.Freshness, 7),
	}

	var (
		postsFr, pagesFr, docsFr, footerFr cache.Freshness
		authorsFr, tagsFr, settingsFr      cache.Freshness
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		s.Posts, postsFr, err = a.loader.Posts(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.Pages, pagesFr, err = a.loader.Pages(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.Docs, docsFr, err = a.loader.Docs(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.FooterPages, footerFr, err = a.loader.FooterPages(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.Authors, authorsFr, err = a.loader.Authors(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.Tags, tagsFr, err = a.loader.Tags(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.Settings, settingsFr, err = a.loader.Settings(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.Freshness["posts"] = postsFr
	s.Freshness["pages"] = pagesFr
	s.Freshness["docs"] = docsFr
	s.Freshness["footer"] = footerFr
	s.Freshness["authors"] = authorsFr
	s.Freshness["tags"] = tagsFr
	s.Freshness["settings"] = settingsFr

	for name, fr := range s.Freshness {
		if fr != cache.Fresh {
			a.log.Warn("collection not fresh", "collection", name, "freshness", fr.String())
		}
	}

	// Cross-linking runs after stripping, as its own pass.
	content.CrossLinkAuthors(s.Authors, s.Posts)
	content.CrossLinkTags(s.Tags, s.Posts)

	if s.Settings != nil && a.siteURL != "" {
		s.Settings.URL = a.siteURL
	}

	a.log.Info("site assembled",
		"posts", len(s.Posts),
		"pages", len(s.Pages),
		"docs", len(s.Docs),
		"authors", len(s.Authors),
		"tags", len(s.Tags),
	)

	return s, nil
}
