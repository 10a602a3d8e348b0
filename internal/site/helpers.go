package site

import (
	"errors"
	"fmt"
	"html/template"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/tdewolff/minify/v2"
	mincss "github.com/tdewolff/minify/v2/css"
	minhtml "github.com/tdewolff/minify/v2/html"

	"github.com/hollowware/ghostsite/internal/content"
)

// ErrMissingAlt is raised when an image helper is called without alt text.
// Missing alt text aborts the build rather than shipping inaccessible
// markup.
var ErrMissingAlt = errors.New("image helper requires alt text")

const wordsPerMinute = 200

var (
	minifier = minify.New()
	tagRe    = regexp.MustCompile(`<[^>]*>`)
)

func init() {
	minifier.AddFunc("text/css", mincss.Minify)
	minifier.AddFunc("text/html", minhtml.Minify)
}

// Helpers builds the template FuncMap. Widths and Formats configure
// responsive image generation.
type Helpers struct {
	Widths  []int
	Formats []string
}

// FuncMap returns the helper functions registered with every template.
func (h Helpers) FuncMap() template.FuncMap {
	return template.FuncMap{
		"imageTag":    h.ImageTag,
		"minifyCSS":   MinifyCSS,
		"minifyHTML":  MinifyHTML,
		"readingTime": ReadingTime,
		"isoDate":     ISODate,
		"stripDomain": content.StripDomain,
	}
}

// ImageTag renders a responsive picture element for src: one source per
// configured format with a srcset across the configured widths, and a plain
// img fallback. Empty alt text is a hard error.
func (h Helpers) ImageTag(src, alt, sizes string) (template.HTML, error) {
	if alt == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingAlt, src)
	}
	if sizes == "" {
		sizes = "100vw"
	}

	var b strings.Builder
	b.WriteString("<picture>")

	for _, format := range h.Formats {
		srcset := make([]string, 0, len(h.Widths))
		for _, w := range h.Widths {
			srcset = append(srcset, fmt.Sprintf("%s %dw", sizedURL(src, w, format), w))
		}
		fmt.Fprintf(&b, `<source type="image/%s" srcset="%s" sizes="%s">`,
			format, strings.Join(srcset, ", "), template.HTMLEscapeString(sizes))
	}

	largest := h.Widths[len(h.Widths)-1]
	fmt.Fprintf(&b, `<img src="%s" alt="%s" loading="lazy" decoding="async">`,
		sizedURL(src, largest, ""), template.HTMLEscapeString(alt))
	b.WriteString("</picture>")

	return template.HTML(b.String()), nil
}

// sizedURL rewrites a Ghost image URL to its resized variant using the
// size/wNNN/format/FMT path convention. Non-CMS images pass through
// unchanged.
func sizedURL(src string, width int, format string) string {
	const marker = "/content/images/"

	i := strings.Index(src, marker)
	if i < 0 {
		return src
	}

	variant := fmt.Sprintf("size/w%d/", width)
	if format != "" {
		variant += "format/" + format + "/"
	}

	return src[:i+len(marker)] + variant + src[i+len(marker):]
}

// MinifyCSS minifies inline stylesheet text.
func MinifyCSS(css string) (template.CSS, error) {
	out, err := minifier.String("text/css", css)
	if err != nil {
		return "", fmt.Errorf("minify css: %w", err)
	}
	return template.CSS(out), nil
}

// MinifyHTML minifies rendered HTML.
func MinifyHTML(html string) (string, error) {
	out, err := minifier.String("text/html", html)
	if err != nil {
		return "", fmt.Errorf("minify html: %w", err)
	}
	return out, nil
}

// ReadingTime estimates minutes to read the given HTML at 200 words per
// minute, never less than one minute.
func ReadingTime(html string) int {
	text := tagRe.ReplaceAllString(html, " ")
	words := len(strings.Fields(text))

	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// ISODate formats t as YYYY-MM-DD. The zero time renders as an empty
// string.
func ISODate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
