package build

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hollowware/ghostsite/internal/content"
)

// LocalPage is a page authored as local markdown rather than fetched from
// the CMS.
type LocalPage struct {
	Title     string
	Permalink string
	HTML      template.HTML
	Summary   string
	Layout    string
	Published string
}

type localMatter struct {
	Title   string `yaml:"title"`
	Date    string `yaml:"date"`
	Summary string `yaml:"summary"`
	Layout  string `yaml:"layout"`
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

var titleCaser = cases.Title(language.English)

// loadLocalPages walks dir and converts every markdown file into a
// LocalPage. A missing directory yields no pages and no error.
func loadLocalPages(dir string) ([]*LocalPage, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var pages []*LocalPage

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		page, err := loadLocalPage(dir, path)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		pages = append(pages, page)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return pages, nil
}

func loadLocalPage(dir, path string) (*LocalPage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var matter localMatter
	body, err := frontmatter.Parse(bytes.NewReader(raw), &matter)
	if err != nil {
		// No frontmatter is fine; the whole file is markdown.
		body = raw
	}

	var buf bytes.Buffer
	if err := markdown.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}

	title := matter.Title
	if title == "" {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		title = titleCaser.String(strings.NewReplacer("-", " ", "_", " ").Replace(base))
	}

	published := ""
	if matter.Date != "" {
		if t := content.ParseDate(matter.Date); !t.IsZero() {
			published = t.Format("2006-01-02")
		}
	}

	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return nil, err
	}
	permalink := "/" + strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel)) + "/"

	return &LocalPage{
		Title:     title,
		Permalink: permalink,
		HTML:      template.HTML(buf.String()),
		Summary:   matter.Summary,
		Layout:    matter.Layout,
		Published: published,
	}, nil
}
