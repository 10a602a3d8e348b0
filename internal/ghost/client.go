// Package ghost is a read-only client for the Ghost Content API.
package ghost

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const acceptVersion = "v5.0"

// Client is a Ghost Content API client.
type Client struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

// NewClient creates a client for the Ghost instance at baseURL,
// authenticating with the given Content API key.
func NewClient(baseURL, key string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		key:     key,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BrowseOptions are the filter/include/limit parameters accepted by every
// browse endpoint. Zero-value fields are omitted from the request.
type BrowseOptions struct {
	Filter  string `json:"filter,omitempty"`
	Include string `json:"include,omitempty"`
	Limit   string `json:"limit,omitempty"`
	Order   string `json:"order,omitempty"`
	Fields  string `json:"fields,omitempty"`
}

func (o BrowseOptions) values() url.Values {
	v := url.Values{}
	if o.Filter != "" {
		v.Set("filter", o.Filter)
	}
	if o.Include != "" {
		v.Set("include", o.Include)
	}
	if o.Limit != "" {
		v.Set("limit", o.Limit)
	}
	if o.Order != "" {
		v.Set("order", o.Order)
	}
	if o.Fields != "" {
		v.Set("fields", o.Fields)
	}
	return v
}

// apiError is the Ghost error envelope.
type apiError struct {
	Errors []struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"errors"`
}

// browse performs a GET against a Content API resource and decodes the
// response into result.
func (c *Client) browse(ctx context.Context, resource string, opts BrowseOptions, result interface{}) error {
	params := opts.values()
	params.Set("key", c.key)

	endpoint := fmt.Sprintf("%s/ghost/api/content/%s/?%s", c.baseURL, resource, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept-Version", acceptVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var envelope apiError
		if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Errors) > 0 {
			return fmt.Errorf("api error (%d): %s", resp.StatusCode, envelope.Errors[0].Message)
		}
		return fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}

// BrowsePosts fetches posts matching opts.
func (c *Client) BrowsePosts(ctx context.Context, opts BrowseOptions) ([]*Post, error) {
	var result struct {
		Posts []*Post `json:"posts"`
	}
	if err := c.browse(ctx, "posts", opts, &result); err != nil {
		return nil, fmt.Errorf("browse posts: %w", err)
	}
	return result.Posts, nil
}

// BrowsePages fetches pages matching opts.
func (c *Client) BrowsePages(ctx context.Context, opts BrowseOptions) ([]*Page, error) {
	var result struct {
		Pages []*Page `json:"pages"`
	}
	if err := c.browse(ctx, "pages", opts, &result); err != nil {
		return nil, fmt.Errorf("browse pages: %w", err)
	}
	return result.Pages, nil
}

// BrowseAuthors fetches authors matching opts.
func (c *Client) BrowseAuthors(ctx context.Context, opts BrowseOptions) ([]*Author, error) {
	var result struct {
		Authors []*Author `json:"authors"`
	}
	if err := c.browse(ctx, "authors", opts, &result); err != nil {
		return nil, fmt.Errorf("browse authors: %w", err)
	}
	return result.Authors, nil
}

// BrowseTags fetches tags matching opts.
func (c *Client) BrowseTags(ctx context.Context, opts BrowseOptions) ([]*Tag, error) {
	var result struct {
		Tags []*Tag `json:"tags"`
	}
	if err := c.browse(ctx, "tags", opts, &result); err != nil {
		return nil, fmt.Errorf("browse tags: %w", err)
	}
	return result.Tags, nil
}

// Settings fetches the site-wide settings record.
func (c *Client) Settings(ctx context.Context, opts BrowseOptions) (*Settings, error) {
	var result struct {
		Settings *Settings `json:"settings"`
	}
	if err := c.browse(ctx, "settings", opts, &result); err != nil {
		return nil, fmt.Errorf("browse settings: %w", err)
	}
	return result.Settings, nil
}
