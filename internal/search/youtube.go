// Package search queries youtube for candidate audio sources. It scrapes
// the results page and walks the embedded ytInitialData JSON, which keeps
// the client free of API keys.
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"
)

// Result is one search hit, normalized to an absolute watch URL.
type Result struct {
	URL         string
	Title       string
	Description string
	Duration    time.Duration
}

// Client performs searches against youtube's results page.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	// MaxRetries bounds transient-failure retries per query.
	MaxRetries uint64
}

// NewClient returns a Client against youtube.com.
func NewClient() *Client {
	return &Client{
		HTTP:       &http.Client{Timeout: 30 * time.Second},
		BaseURL:    "https://www.youtube.com",
		MaxRetries: 2,
	}
}

var initialDataRegex = regexp.MustCompile(`(?s)var ytInitialData\s*=\s*(\{.+?\});</script>`)

// Search returns the results for query in page order. Transient transport
// and server errors are retried with exponential backoff; an empty result
// list is not an error.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	// sp=EgIQAQ restricts results to videos.
	endpoint := fmt.Sprintf("%s/results?search_query=%s&sp=EgIQAQ%%253D%%253D",
		c.BaseURL, url.QueryEscape(query))

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept-Language", "en")
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("youtube search: %s", resp.Status)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("youtube search: %s", resp.Status))
		}
		body, err = io.ReadAll(resp.Body)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.MaxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("search %q failed: %w", query, err)
	}

	return c.parseResults(string(body)), nil
}

// parseResults extracts videoRenderer entries from the results page HTML.
// Pages without recognizable data yield an empty slice.
func (c *Client) parseResults(page string) []Result {
	match := initialDataRegex.FindStringSubmatch(page)
	if match == nil {
		return nil
	}
	data := gjson.Parse(match[1])

	var results []Result
	sections := data.Get("contents.twoColumnSearchResultsRenderer.primaryContents.sectionListRenderer.contents")
	sections.ForEach(func(_, section gjson.Result) bool {
		section.Get("itemSectionRenderer.contents").ForEach(func(_, item gjson.Result) bool {
			video := item.Get("videoRenderer")
			if !video.Exists() {
				return true
			}
			id := video.Get("videoId").String()
			if id == "" {
				return true
			}
			results = append(results, Result{
				URL:         c.BaseURL + "/watch?v=" + id,
				Title:       video.Get("title.runs.0.text").String(),
				Description: snippetText(video),
				Duration:    ParseDuration(video.Get("lengthText.simpleText").String()),
			})
			return true
		})
		return true
	})
	return results
}

// snippetText joins the description snippet runs into one string.
func snippetText(video gjson.Result) string {
	var sb strings.Builder
	runs := video.Get("detailedMetadataSnippets.0.snippetText.runs")
	if !runs.Exists() {
		runs = video.Get("descriptionSnippet.runs")
	}
	runs.ForEach(func(_, run gjson.Result) bool {
		sb.WriteString(run.Get("text").String())
		return true
	})
	return sb.String()
}

// ParseDuration converts a "H:MM:SS" or "M:SS" length label to a
// duration. Unparseable labels (live streams show none) yield zero, which
// the resolver rejects as a malformed entry.
func ParseDuration(label string) time.Duration {
	label = strings.TrimSpace(label)
	if label == "" {
		return 0
	}
	parts := strings.Split(label, ":")
	if len(parts) > 3 {
		return 0
	}
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second
}
