// Package build renders the assembled site to the output directory.
package build

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hollowware/ghostsite/internal/config"
	"github.com/hollowware/ghostsite/internal/ghost"
	"github.com/hollowware/ghostsite/internal/logger"
	"github.com/hollowware/ghostsite/internal/site"
)

const (
	baseLayout   = "base.html"
	indexLayout  = "index.html"
	postLayout   = "post.html"
	pageLayout   = "page.html"
	tagLayout    = "tag.html"
	authorLayout = "author.html"
)

// Builder renders one site build.
type Builder struct {
	cfg       *config.Config
	assembler *site.Assembler
	helpers   site.Helpers
	log       *logger.Logger
}

// NewBuilder creates a builder over the given assembler.
func NewBuilder(cfg *config.Config, assembler *site.Assembler, log *logger.Logger) *Builder {
	return &Builder{
		cfg:       cfg,
		assembler: assembler,
		helpers: site.Helpers{
			Widths:  cfg.Images.Widths,
			Formats: cfg.Images.Formats,
		},
		log: log,
	}
}

// pageData is the context handed to every layout.
type pageData struct {
	Site   *site.Site
	Post   *ghost.Post
	Page   *ghost.Page
	Tag    *ghost.Tag
	Author *ghost.Author
	Local  *LocalPage
}

// Build assembles collections, renders every page, and copies static
// assets. It returns the assembled site so the preview server can reuse it.
func (b *Builder) Build(ctx context.Context) (*site.Site, error) {
	routes, err := LoadRoutes(b.cfg.Build.RoutesFile)
	if err != nil {
		return nil, err
	}

	s, err := b.assembler.Assemble(ctx)
	if err != nil {
		return nil, fmt.Errorf("assemble site: %w", err)
	}

	locals, err := loadLocalPages(b.cfg.Build.ContentDir)
	if err != nil {
		return nil, fmt.Errorf("load local pages: %w", err)
	}

	templates, err := b.parseLayouts()
	if err != nil {
		return nil, err
	}

	outputDir := b.cfg.Build.OutputDir
	if err := os.RemoveAll(outputDir); err != nil {
		return nil, fmt.Errorf("clean output directory: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	if err := b.copyStatic(outputDir); err != nil {
		return nil, err
	}

	rendered := 0

	if err := b.render(templates, indexLayout, filepath.Join(outputDir, "index.html"), pageData{Site: s}); err != nil {
		return nil, err
	}
	rendered++

	for _, p := range s.Posts {
		path := b.outputPath(permalink(routes.Posts, p.Slug, p.URL))
		if err := b.render(templates, postLayout, path, pageData{Site: s, Post: p}); err != nil {
			return nil, err
		}
		rendered++
	}

	for _, p := range s.Pages {
		path := b.outputPath(permalink(routes.Pages, p.Slug, p.URL))
		if err := b.render(templates, pageLayout, path, pageData{Site: s, Page: p}); err != nil {
			return nil, err
		}
		rendered++
	}

	for _, p := range s.Docs {
		path := b.outputPath(permalink(routes.Docs, p.Slug, ""))
		if err := b.render(templates, pageLayout, path, pageData{Site: s, Page: p}); err != nil {
			return nil, err
		}
		rendered++
	}

	if templates.Lookup(tagLayout) != nil {
		for _, t := range s.Tags {
			path := b.outputPath(permalink(routes.Tags, t.Slug, ""))
			if err := b.render(templates, tagLayout, path, pageData{Site: s, Tag: t}); err != nil {
				return nil, err
			}
			rendered++
		}
	} else if len(s.Tags) > 0 {
		b.log.Warn("no tag layout, skipping tag archives", "layout", tagLayout)
	}

	if templates.Lookup(authorLayout) != nil {
		for _, a := range s.Authors {
			path := b.outputPath(permalink(routes.Authors, a.Slug, ""))
			if err := b.render(templates, authorLayout, path, pageData{Site: s, Author: a}); err != nil {
				return nil, err
			}
			rendered++
		}
	} else if len(s.Authors) > 0 {
		b.log.Warn("no author layout, skipping author archives", "layout", authorLayout)
	}

	for _, lp := range locals {
		layout := pageLayout
		if lp.Layout != "" {
			layout = lp.Layout
		}
		if templates.Lookup(layout) == nil {
			return nil, fmt.Errorf("layout %s for local page %s not found", layout, lp.Permalink)
		}
		path := b.outputPath(lp.Permalink)
		if err := b.render(templates, layout, path, pageData{Site: s, Local: lp}); err != nil {
			return nil, err
		}
		rendered++
	}

	b.log.Info("build complete", "pages", rendered, "output", outputDir)
	return s, nil
}

// parseLayouts loads base.html, partials, and every other layout file with
// the helper functions attached.
func (b *Builder) parseLayouts() (*template.Template, error) {
	layoutsDir := b.cfg.Build.LayoutsDir

	if _, err := os.Stat(layoutsDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("layouts directory %s not found", layoutsDir)
	}

	var files []string
	err := filepath.WalkDir(layoutsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".html") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan layouts: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no layout files in %s", layoutsDir)
	}

	templates, err := template.New("").Funcs(b.helpers.FuncMap()).ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("parse layouts: %w", err)
	}

	if templates.Lookup(baseLayout) == nil {
		return nil, fmt.Errorf("%s not found in %s", baseLayout, layoutsDir)
	}
	if templates.Lookup(indexLayout) == nil {
		return nil, fmt.Errorf("%s not found in %s", indexLayout, layoutsDir)
	}
	if templates.Lookup(postLayout) == nil {
		return nil, fmt.Errorf("%s not found in %s", postLayout, layoutsDir)
	}
	if templates.Lookup(pageLayout) == nil {
		return nil, fmt.Errorf("%s not found in %s", pageLayout, layoutsDir)
	}

	return templates, nil
}

// render executes layout into path, minifying the output HTML.
func (b *Builder) render(templates *template.Template, layout, path string, data pageData) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, layout, data); err != nil {
		return fmt.Errorf("execute %s for %s: %w", layout, path, err)
	}

	out, err := site.MinifyHTML(buf.String())
	if err != nil {
		return fmt.Errorf("minify %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	b.log.Debug("rendered", "path", path, "layout", layout)
	return nil
}

// permalink resolves a record's output URL. When the routes prefix is the
// root, the record's own (already domain-stripped) URL wins if present.
func permalink(prefix, slug, recordURL string) string {
	if prefix == "/" && recordURL != "" {
		return recordURL
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + slug + "/"
}

// outputPath maps a permalink to its index.html under the output directory.
func (b *Builder) outputPath(link string) string {
	clean := strings.Trim(link, "/")
	return filepath.Join(b.cfg.Build.OutputDir, filepath.FromSlash(clean), "index.html")
}

// copyStatic copies the static assets directory into the output directory.
// A missing static directory is skipped.
func (b *Builder) copyStatic(outputDir string) error {
	staticDir := b.cfg.Build.StaticDir
	if staticDir == "" {
		return nil
	}
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		b.log.Debug("no static directory, skipping copy", "dir", staticDir)
		return nil
	}

	return filepath.WalkDir(staticDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(staticDir, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(outputDir, rel)

		if d.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}
		return copyFile(path, dst)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return nil
}
