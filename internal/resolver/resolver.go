// Package resolver turns an item's descriptive fields into an ordered list
// of candidate source URLs. The ordering strategy favors precise queries
// first: a user template when configured, then "album - item" when the two
// names differ meaningfully, then "artist - item" as the last resort.
package resolver

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"spotdl/internal/model"
	"spotdl/internal/search"
)

// MaxCandidates caps the URLs returned for one item.
const MaxCandidates = 10

// DefaultMaxDuration rejects song-kind results at or above this length;
// full albums and mixes routinely come back for track searches.
const DefaultMaxDuration = 15 * time.Minute

// similarityFloor divides "same title" from "meaningfully different": when
// item and album names score below it, searching "album - item" avoids
// matching a same-titled compilation result.
const similarityFloor = 0.5

// validContexts are the placeholders a user search-format template may use.
var validContexts = map[string]bool{
	"itemName":   true,
	"albumName":  true,
	"artistName": true,
}

var contextRegex = regexp.MustCompile(`\{([^{}]*)\}`)

// Searcher is the external search collaborator.
type Searcher interface {
	Search(ctx context.Context, query string) ([]search.Result, error)
}

// Options tune filtering and query construction.
type Options struct {
	// SearchFormat is an optional template like "{artistName} {itemName} audio".
	SearchFormat string
	// ExtraSearch is appended to every query ("lyrics", "audio", ...).
	ExtraSearch string
	// ExclusionFilters reject results whose title or description contains
	// any of these substrings (case-insensitive).
	ExclusionFilters []string
	// MaxDuration is the song-kind duration ceiling; zero means
	// DefaultMaxDuration.
	MaxDuration time.Duration
}

// Resolver resolves candidate URLs via a search client.
type Resolver struct {
	searcher Searcher
	opts     Options
	// similarity is swappable for tests.
	similarity func(a, b string) float64
}

// New returns a Resolver using Sorensen-Dice similarity over the given
// search client.
func New(searcher Searcher, opts Options) *Resolver {
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = DefaultMaxDuration
	}
	dice := metrics.NewSorensenDice()
	return &Resolver{
		searcher: searcher,
		opts:     opts,
		similarity: func(a, b string) float64 {
			return strutil.Similarity(strings.ToLower(a), strings.ToLower(b), dice)
		},
	}
}

// Resolve returns an ordered, possibly empty, candidate list for item.
// Items carrying a DirectURL never reach this code path.
func (r *Resolver) Resolve(ctx context.Context, item model.DownloadItem, kind model.ListKind) ([]string, error) {
	if r.opts.SearchFormat != "" {
		query, err := ExpandTemplate(r.opts.SearchFormat, item)
		if err != nil {
			return nil, err
		}
		urls, err := r.searchFiltered(ctx, query, kind)
		if err != nil {
			return nil, err
		}
		if len(urls) > 0 {
			return urls, nil
		}
	}

	if r.similarity(item.Name, item.AlbumName) < similarityFloor {
		urls, err := r.searchFiltered(ctx, item.AlbumName+" - "+item.Name, kind)
		if err != nil {
			return nil, err
		}
		if len(urls) > 0 {
			return urls, nil
		}
	}

	return r.searchFiltered(ctx, item.PrimaryArtist()+" - "+item.Name, kind)
}

// searchFiltered runs one query and applies the exclusion, duration and
// sanity filters, capping the survivors at MaxCandidates.
func (r *Resolver) searchFiltered(ctx context.Context, query string, kind model.ListKind) ([]string, error) {
	if extra := strings.TrimSpace(r.opts.ExtraSearch); extra != "" {
		query += " " + extra
	}
	results, err := r.searcher.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	var urls []string
	for _, result := range results {
		if r.excluded(result) {
			continue
		}
		// Zero duration marks malformed entries and live streams.
		if result.Duration <= 0 {
			continue
		}
		if kind == model.KindSong && result.Duration >= r.opts.MaxDuration {
			continue
		}
		urls = append(urls, result.URL)
		if len(urls) == MaxCandidates {
			break
		}
	}
	return urls, nil
}

func (r *Resolver) excluded(result search.Result) bool {
	for _, filter := range r.opts.ExclusionFilters {
		filter = strings.TrimSpace(filter)
		if filter == "" {
			continue
		}
		lower := strings.ToLower(filter)
		if strings.Contains(strings.ToLower(result.Title), lower) ||
			strings.Contains(strings.ToLower(result.Description), lower) {
			return true
		}
	}
	return false
}

// ExpandTemplate substitutes the recognized {itemName}, {albumName} and
// {artistName} placeholders in a user search format. Templates with no
// placeholder, or with an unrecognized one, are configuration errors.
func ExpandTemplate(format string, item model.DownloadItem) (string, error) {
	matches := contextRegex.FindAllStringSubmatch(format, -1)
	if len(matches) == 0 {
		return "", fmt.Errorf("search format %q contains no {context} placeholder", format)
	}
	expanded := format
	for _, match := range matches {
		name := match[1]
		if !validContexts[name] {
			return "", fmt.Errorf("invalid search context %q", name)
		}
		var value string
		switch name {
		case "itemName":
			value = item.Name
		case "albumName":
			value = item.AlbumName
		case "artistName":
			value = item.PrimaryArtist()
		}
		expanded = strings.ReplaceAll(expanded, match[0], value)
	}
	return expanded, nil
}
