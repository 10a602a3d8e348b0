package site

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHelpers = Helpers{
	Widths:  []int{300, 600},
	Formats: []string{"webp", "jpeg"},
}

func TestReadingTime(t *testing.T) {
	words := func(n int) string {
		return strings.TrimSpace(strings.Repeat("word ", n))
	}

	tests := []struct {
		name string
		html string
		want int
	}{
		{"400 words is 2 minutes", "<p>" + words(400) + "</p>", 2},
		{"partial minute rounds up", words(201), 2},
		{"short text is at least 1", words(5), 1},
		{"empty is at least 1", "", 1},
		{"tags are not words", "<div><span></span></div>" + words(200), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReadingTime(tt.html))
		})
	}
}

func TestImageTagRequiresAlt(t *testing.T) {
	_, err := testHelpers.ImageTag("/content/images/pic.jpg", "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAlt)
}

func TestImageTagResponsiveMarkup(t *testing.T) {
	html, err := testHelpers.ImageTag("/content/images/2024/pic.jpg", "A picture", "(min-width: 600px) 50vw, 100vw")
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, "<picture>")
	assert.Contains(t, out, `type="image/webp"`)
	assert.Contains(t, out, `type="image/jpeg"`)
	assert.Contains(t, out, "/content/images/size/w300/format/webp/2024/pic.jpg 300w")
	assert.Contains(t, out, "/content/images/size/w600/format/webp/2024/pic.jpg 600w")
	assert.Contains(t, out, `alt="A picture"`)
	assert.Contains(t, out, `loading="lazy"`)
	// Fallback img uses the largest width without a format variant.
	assert.Contains(t, out, `src="/content/images/size/w600/2024/pic.jpg"`)
}

func TestImageTagNonCMSImagePassesThrough(t *testing.T) {
	html, err := testHelpers.ImageTag("https://elsewhere.example.org/pic.jpg", "Ext", "")
	require.NoError(t, err)
	assert.Contains(t, string(html), `src="https://elsewhere.example.org/pic.jpg"`)
}

func TestMinifyCSS(t *testing.T) {
	out, err := MinifyCSS("body {  color : #ffffff ; }")
	require.NoError(t, err)
	assert.Equal(t, "body{color:#fff}", string(out))
}

func TestMinifyHTML(t *testing.T) {
	out, err := MinifyHTML("<p>  hello   world  </p>\n\n<p>bye</p>")
	require.NoError(t, err)
	assert.NotContains(t, out, "\n\n")
	assert.Contains(t, out, "hello world")
}

func TestISODate(t *testing.T) {
	d := time.Date(2024, time.March, 15, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-15", ISODate(d))
	assert.Equal(t, "", ISODate(time.Time{}))
}
