package ghost

import "time"

// Post is a Ghost post as returned by the Content API. Timestamp fields
// arrive as strings and are coerced to time.Time during normalization.
type Post struct {
	ID            string  `json:"id"`
	UUID          string  `json:"uuid,omitempty"`
	Slug          string  `json:"slug"`
	URL           string  `json:"url"`
	Title         string  `json:"title"`
	HTML          string  `json:"html,omitempty"`
	Excerpt       string  `json:"excerpt,omitempty"`
	FeatureImage  string  `json:"feature_image,omitempty"`
	Featured      bool    `json:"featured"`
	PublishedAt   string  `json:"published_at,omitempty"`
	UpdatedAt     string  `json:"updated_at,omitempty"`
	CreatedAt     string  `json:"created_at,omitempty"`
	PrimaryAuthor *Author `json:"primary_author,omitempty"`
	Tags          []Tag   `json:"tags,omitempty"`

	// Published is PublishedAt parsed into a real date. Set by the
	// normalizer, never by the API decoder.
	Published time.Time `json:"-"`
}

// Page is structurally a post without tags. Ghost serves pages, docs and
// footer entries from the same endpoint, distinguished by tag filters.
type Page struct {
	ID            string  `json:"id"`
	Slug          string  `json:"slug"`
	URL           string  `json:"url"`
	Title         string  `json:"title"`
	HTML          string  `json:"html,omitempty"`
	Excerpt       string  `json:"excerpt,omitempty"`
	FeatureImage  string  `json:"feature_image,omitempty"`
	Featured      bool    `json:"featured"`
	PublishedAt   string  `json:"published_at,omitempty"`
	UpdatedAt     string  `json:"updated_at,omitempty"`
	PrimaryAuthor *Author `json:"primary_author,omitempty"`

	Published time.Time `json:"-"`
}

// Author is a Ghost author record.
type Author struct {
	ID           string `json:"id"`
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	ProfileImage string `json:"profile_image,omitempty"`
	Bio          string `json:"bio,omitempty"`
	Website      string `json:"website,omitempty"`

	// Posts holds this author's posts, attached by cross-linking and only
	// when non-empty.
	Posts []*Post `json:"-"`
}

// Tag is a Ghost tag record.
type Tag struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Visibility  string `json:"visibility,omitempty"`

	Posts []*Post `json:"-"`
}

// Settings is the single site-wide metadata record.
type Settings struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Logo        string    `json:"logo,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	CoverImage  string    `json:"cover_image,omitempty"`
	Lang        string    `json:"lang,omitempty"`
	Timezone    string    `json:"timezone,omitempty"`
	Navigation  []NavItem `json:"navigation,omitempty"`
}

// NavItem is one entry of the site navigation configured in Ghost.
type NavItem struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}
