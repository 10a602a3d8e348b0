package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollowware/ghostsite/internal/cache"
	"github.com/hollowware/ghostsite/internal/content"
	"github.com/hollowware/ghostsite/internal/ghost"
	"github.com/hollowware/ghostsite/internal/logger"
)

// fakeGhost serves canned Content API responses and counts requests.
func fakeGhost(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var requests atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/ghost/api/content/posts/", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`{"posts":[
			{"id":"p1","slug":"first","url":"BASE/first/","title":"First","featured":false,
			 "published_at":"2024-01-10T08:00:00.000Z",
			 "primary_author":{"id":"a1","slug":"jo","name":"Jo","url":"BASE/author/jo/"},
			 "tags":[{"id":"t1","slug":"news","name":"News","url":"BASE/tag/news/"}]},
			{"id":"p2","slug":"second","url":"BASE/second/","title":"Second","featured":true,
			 "published_at":"2024-02-20T08:00:00.000Z",
			 "primary_author":{"id":"a1","slug":"jo","name":"Jo","url":"BASE/author/jo/"},
			 "tags":[]}
		]}`))
	})
	mux.HandleFunc("/ghost/api/content/pages/", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		filter := r.URL.Query().Get("filter")
		switch {
		case strings.Contains(filter, "tag:hash-footer"):
			w.Write([]byte(`{"pages":[{"id":"f1","slug":"imprint","url":"BASE/imprint/","title":"Imprint"}]}`))
		case strings.Contains(filter, "tag:hash-docs"):
			w.Write([]byte(`{"pages":[]}`))
		default:
			w.Write([]byte(`{"pages":[{"id":"g1","slug":"about","url":"BASE/about/","title":"About"}]}`))
		}
	})
	mux.HandleFunc("/ghost/api/content/authors/", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`{"authors":[{"id":"a1","slug":"jo","name":"Jo","url":"BASE/author/jo/"}]}`))
	})
	mux.HandleFunc("/ghost/api/content/tags/", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`{"tags":[{"id":"t1","slug":"news","name":"News","url":"BASE/tag/news/"}]}`))
	})
	mux.HandleFunc("/ghost/api/content/settings/", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`{"settings":{"title":"Test Site","description":"d","url":"BASE/"}}`))
	})

	// Responses embed the server's own URL so domain stripping is real.
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, r)
		body := strings.ReplaceAll(rec.Body.String(), "BASE", server.URL)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server, &requests
}

func newTestAssembler(t *testing.T, baseURL, siteURL string) (*Assembler, *cache.Store) {
	t.Helper()

	log := logger.New("error")
	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	client := ghost.NewClient(baseURL, "testkey")
	fetcher := cache.NewFetcher(store, log)
	loader := content.NewLoader(client, fetcher, baseURL)

	return NewAssembler(loader, siteURL, log), store
}

func TestAssemble(t *testing.T) {
	server, _ := fakeGhost(t)
	assembler, _ := newTestAssembler(t, server.URL, "https://public.example.com")

	s, err := assembler.Assemble(context.Background())
	require.NoError(t, err)

	// Featured-first ordering.
	require.Len(t, s.Posts, 2)
	assert.Equal(t, "p2", s.Posts[0].ID)
	assert.Equal(t, "p1", s.Posts[1].ID)

	// Domain stripping across all URL fields.
	for _, p := range s.Posts {
		assert.NotContains(t, p.URL, server.URL)
		if p.PrimaryAuthor != nil {
			assert.NotContains(t, p.PrimaryAuthor.URL, server.URL)
		}
		for _, tag := range p.Tags {
			assert.NotContains(t, tag.URL, server.URL)
		}
	}

	// Cross-linking: Jo wrote both posts, in fetch order.
	require.Len(t, s.Authors, 1)
	require.Len(t, s.Authors[0].Posts, 2)
	assert.Equal(t, "p1", s.Authors[0].Posts[0].ID)
	assert.Equal(t, "p2", s.Authors[0].Posts[1].ID)

	require.Len(t, s.Tags, 1)
	require.Len(t, s.Tags[0].Posts, 1)
	assert.Equal(t, "p1", s.Tags[0].Posts[0].ID)

	// Separate page collections by filter.
	require.Len(t, s.Pages, 1)
	assert.Equal(t, "about", s.Pages[0].Slug)
	require.Len(t, s.FooterPages, 1)
	assert.Equal(t, "imprint", s.FooterPages[0].Slug)
	assert.Empty(t, s.Docs)

	// Site URL override wins over CMS settings.
	require.NotNil(t, s.Settings)
	assert.Equal(t, "https://public.example.com", s.Settings.URL)

	for name, fr := range s.Freshness {
		assert.Equal(t, cache.Fresh, fr, "collection %s", name)
	}
}

func TestAssembleSecondRunHitsCache(t *testing.T) {
	server, requests := fakeGhost(t)
	assembler, _ := newTestAssembler(t, server.URL, "")

	_, err := assembler.Assemble(context.Background())
	require.NoError(t, err)
	afterFirst := requests.Load()

	_, err = assembler.Assemble(context.Background())
	require.NoError(t, err)

	assert.Equal(t, afterFirst, requests.Load(), "all collections fresh, no remote calls")
}

func TestAssembleServesStaleWhenCMSUnreachable(t *testing.T) {
	server, _ := fakeGhost(t)
	assembler, store := newTestAssembler(t, server.URL, "")

	first, err := assembler.Assemble(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Posts, 2)

	// Age every cache entry past its freshness window, then kill the CMS.
	// The refetches fail and the last cached values get served.
	entries, err := store.Keys()
	require.NoError(t, err)
	for _, e := range entries {
		full, err := store.Get(e.Key)
		require.NoError(t, err)
		require.NoError(t, store.Put(e.Key, full.Data, time.Now().Add(-60*24*time.Hour)))
	}
	server.Close()

	second, err := assembler.Assemble(context.Background())
	require.NoError(t, err, "build must survive an unreachable CMS")
	assert.Len(t, second.Posts, 2)
	assert.Equal(t, first.Settings.Title, second.Settings.Title)
	assert.Equal(t, cache.Stale, second.Freshness["posts"])
	assert.Equal(t, cache.Stale, second.Freshness["settings"])
}
