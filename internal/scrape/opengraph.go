// Package scrape extracts page metadata for direct link inputs, which
// arrive without any catalog data attached.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// PageMeta is what an OpenGraph scrape yields for a direct link.
type PageMeta struct {
	Title string
	Image string
}

// Client fetches pages and reads their OpenGraph tags.
type Client struct {
	HTTP      *http.Client
	UserAgent string
}

// NewClient returns a scraper with a 30-second request timeout.
func NewClient() *Client {
	return &Client{HTTP: &http.Client{Timeout: 30 * time.Second}}
}

// PageMeta fetches rawURL and returns its og:title and og:image values.
// Pages without an og:title produce an error so callers can fall back to
// a derived name.
func (c *Client) PageMeta(ctx context.Context, rawURL string) (PageMeta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return PageMeta{}, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return PageMeta{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return PageMeta{}, fmt.Errorf("page fetch: %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return PageMeta{}, fmt.Errorf("failed to parse page: %w", err)
	}

	meta := PageMeta{
		Title: metaProperty(doc, "og:title"),
		Image: metaProperty(doc, "og:image"),
	}
	if meta.Title == "" {
		return PageMeta{}, errors.New("page has no og:title")
	}
	return meta, nil
}

func metaProperty(doc *goquery.Document, property string) string {
	var content string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if prop, _ := s.Attr("property"); prop != property {
			return true
		}
		content, _ = s.Attr("content")
		return false
	})
	return strings.TrimSpace(content)
}
