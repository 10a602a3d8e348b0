// Package search maintains a full-text index over normalized posts for the
// preview server.
package search

import (
	"fmt"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/hollowware/ghostsite/internal/ghost"
)

// Index wraps a Bleve search index over post records.
type Index struct {
	index bleve.Index
}

// IndexedPost is the indexed shape of a normalized post.
type IndexedPost struct {
	ID        string
	Title     string
	Excerpt   string
	HTML      string
	Author    string
	Tags      []string
	URL       string
	Published time.Time
}

// Result is one search hit.
type Result struct {
	ID        string
	Title     string
	Author    string
	URL       string
	Score     float64
	Fragments map[string][]string
}

// Open opens or creates a Bleve index at path.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	return &Index{index: idx}, nil
}

// InMemory creates a non-persistent index. The preview server rebuilds its
// index from cached posts on every build, so persistence buys nothing.
func InMemory() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create in-memory index: %w", err)
	}
	return &Index{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()

	// English analyzer on titles for better stemming.
	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = "en"

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("ID", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Title", titleFieldMapping)
	docMapping.AddFieldMappingsAt("Excerpt", textFieldMapping)
	docMapping.AddFieldMappingsAt("HTML", textFieldMapping)
	docMapping.AddFieldMappingsAt("Author", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("URL", bleve.NewTextFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}

// Close closes the index.
func (i *Index) Close() error {
	return i.index.Close()
}

// Rebuild replaces the index contents with the given posts.
func (i *Index) Rebuild(posts []*ghost.Post) error {
	batch := i.index.NewBatch()

	for _, p := range posts {
		doc := &IndexedPost{
			ID:        p.ID,
			Title:     p.Title,
			Excerpt:   p.Excerpt,
			HTML:      p.HTML,
			URL:       p.URL,
			Published: p.Published,
		}
		if p.PrimaryAuthor != nil {
			doc.Author = p.PrimaryAuthor.Name
		}
		for _, t := range p.Tags {
			doc.Tags = append(doc.Tags, t.Name)
		}

		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("batch index %s: %w", doc.ID, err)
		}
	}

	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	return nil
}

// Search runs a query string search (quotes, boolean operators and fuzzy ~
// supported) with highlighted fragments.
func (i *Index) Search(queryStr string, limit int) ([]*Result, error) {
	query := bleve.NewQueryStringQuery(queryStr)

	req := bleve.NewSearchRequestOptions(query, limit, 0, false)
	req.Highlight = bleve.NewHighlightWithStyle("html")
	req.Fields = []string{"Title", "Author", "URL"}

	results, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var hits []*Result
	for _, hit := range results.Hits {
		r := &Result{
			ID:        hit.ID,
			Score:     hit.Score,
			Fragments: hit.Fragments,
		}
		if title, ok := hit.Fields["Title"].(string); ok {
			r.Title = title
		}
		if author, ok := hit.Fields["Author"].(string); ok {
			r.Author = author
		}
		if url, ok := hit.Fields["URL"].(string); ok {
			r.URL = url
		}
		hits = append(hits, r)
	}

	return hits, nil
}

// Count returns the number of indexed posts.
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}
