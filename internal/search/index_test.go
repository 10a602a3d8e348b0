package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollowware/ghostsite/internal/ghost"
)

func testPosts() []*ghost.Post {
	return []*ghost.Post{
		{
			ID:            "p1",
			Title:         "Deploying with Kubernetes",
			Excerpt:       "How we roll out services",
			HTML:          "<p>Rolling updates and readiness probes.</p>",
			URL:           "/deploying-with-kubernetes/",
			PrimaryAuthor: &ghost.Author{Name: "Jo"},
			Tags:          []ghost.Tag{{Name: "Infrastructure"}},
		},
		{
			ID:      "p2",
			Title:   "Baking Sourdough",
			Excerpt: "A weekend project",
			HTML:    "<p>Flour, water, salt, patience.</p>",
			URL:     "/baking-sourdough/",
		},
	}
}

func TestIndexRebuildAndSearch(t *testing.T) {
	idx, err := InMemory()
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Rebuild(testPosts()))

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	hits, err := idx.Search("kubernetes", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "p1", hits[0].ID)
	assert.Equal(t, "Deploying with Kubernetes", hits[0].Title)
	assert.Equal(t, "Jo", hits[0].Author)
	assert.Equal(t, "/deploying-with-kubernetes/", hits[0].URL)
}

func TestSearchNoResults(t *testing.T) {
	idx, err := InMemory()
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Rebuild(testPosts()))

	hits, err := idx.Search("nonexistentterm", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
