// Package content normalizes CMS records and exposes them as named,
// cache-backed collections.
package content

import (
	"sort"
	"strings"
	"time"

	"github.com/hollowware/ghostsite/internal/ghost"
)

// Ghost timestamps are RFC 3339 with milliseconds; older exports drop the
// fractional part.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// StripDomain removes the CMS base URL prefix from u. After stripping, u no
// longer contains the base domain substring.
func StripDomain(u, base string) string {
	if base == "" || u == "" {
		return u
	}
	return strings.Replace(u, strings.TrimSuffix(base, "/"), "", 1)
}

// ParseDate converts a raw CMS timestamp string to a time.Time. Unparseable
// or empty input yields the zero time.
func ParseDate(raw string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// NormalizePosts strips the CMS domain from every URL field of each post,
// including referenced author and tag URLs, and coerces published dates.
// Stripping and cross-linking are separate passes: this never attaches
// references.
func NormalizePosts(posts []*ghost.Post, base string) {
	for _, p := range posts {
		p.URL = StripDomain(p.URL, base)
		p.FeatureImage = StripDomain(p.FeatureImage, base)
		p.Published = ParseDate(p.PublishedAt)
		if p.PrimaryAuthor != nil {
			p.PrimaryAuthor.URL = StripDomain(p.PrimaryAuthor.URL, base)
			p.PrimaryAuthor.ProfileImage = StripDomain(p.PrimaryAuthor.ProfileImage, base)
		}
		for i := range p.Tags {
			p.Tags[i].URL = StripDomain(p.Tags[i].URL, base)
		}
	}
}

// NormalizePages strips domains and coerces dates for pages, docs and
// footer entries.
func NormalizePages(pages []*ghost.Page, base string) {
	for _, p := range pages {
		p.URL = StripDomain(p.URL, base)
		p.FeatureImage = StripDomain(p.FeatureImage, base)
		p.Published = ParseDate(p.PublishedAt)
		if p.PrimaryAuthor != nil {
			p.PrimaryAuthor.URL = StripDomain(p.PrimaryAuthor.URL, base)
			p.PrimaryAuthor.ProfileImage = StripDomain(p.PrimaryAuthor.ProfileImage, base)
		}
	}
}

// NormalizeAuthors strips domains from author URLs.
func NormalizeAuthors(authors []*ghost.Author, base string) {
	for _, a := range authors {
		a.URL = StripDomain(a.URL, base)
		a.ProfileImage = StripDomain(a.ProfileImage, base)
	}
}

// NormalizeTags strips domains from tag URLs.
func NormalizeTags(tags []*ghost.Tag, base string) {
	for _, t := range tags {
		t.URL = StripDomain(t.URL, base)
	}
}

// CrossLinkAuthors attaches to each author the posts whose primary author
// matches, preserving source fetch order. Authors with no posts keep a nil
// Posts field.
func CrossLinkAuthors(authors []*ghost.Author, posts []*ghost.Post) {
	byAuthor := make(map[string][]*ghost.Post)
	for _, p := range posts {
		if p.PrimaryAuthor == nil {
			continue
		}
		byAuthor[p.PrimaryAuthor.ID] = append(byAuthor[p.PrimaryAuthor.ID], p)
	}
	for _, a := range authors {
		if linked := byAuthor[a.ID]; len(linked) > 0 {
			a.Posts = linked
		}
	}
}

// CrossLinkTags attaches to each tag the posts that reference it, preserving
// source fetch order. Tags with no posts keep a nil Posts field.
func CrossLinkTags(tags []*ghost.Tag, posts []*ghost.Post) {
	byTag := make(map[string][]*ghost.Post)
	for _, p := range posts {
		for _, t := range p.Tags {
			byTag[t.ID] = append(byTag[t.ID], p)
		}
	}
	for _, t := range tags {
		if linked := byTag[t.ID]; len(linked) > 0 {
			t.Posts = linked
		}
	}
}

// SortFeaturedFirst stable-sorts posts so that featured posts precede
// non-featured ones, preserving relative order within each group.
func SortFeaturedFirst(posts []*ghost.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Featured && !posts[j].Featured
	})
}
