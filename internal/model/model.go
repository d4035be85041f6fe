// Package model holds the data types shared across the download pipeline.
package model

import "strings"

// ListKind describes what a DownloadList contains. Song lists get the
// duration ceiling applied during candidate resolution; episode and
// youtube lists do not.
type ListKind string

const (
	KindSong    ListKind = "song"
	KindEpisode ListKind = "episode"
	KindYouTube ListKind = "youtube"
)

// Valid reports whether k is a kind the pipeline knows how to process.
func (k ListKind) Valid() bool {
	switch k {
	case KindSong, KindEpisode, KindYouTube:
		return true
	}
	return false
}

// DownloadItem is one acquirable audio unit. Items are constructed by the
// catalog collaborator and never mutated by the pipeline; per-run state
// lives in ProcessingResult instead.
type DownloadItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	AlbumName   string   `json:"albumName"`
	Artists     []string `json:"artists"`
	ReleaseDate string   `json:"releaseDate"`
	TrackNumber int      `json:"trackNumber"`
	TotalTracks int      `json:"totalTracks"`
	Popularity  int      `json:"popularity"`
	BPM         int      `json:"bpm,omitempty"`
	CoverURL    string   `json:"coverUrl,omitempty"`
	Lyrics      string   `json:"lyrics,omitempty"`

	// DirectURL bypasses candidate resolution when set; the single URL is
	// the only candidate tried.
	DirectURL string `json:"directUrl,omitempty"`
}

// PrimaryArtist returns the first artist, or an empty string for items
// without artist data (direct youtube links).
func (i DownloadItem) PrimaryArtist() string {
	if len(i.Artists) == 0 {
		return ""
	}
	return i.Artists[0]
}

// JoinedArtists returns the full artist list as a single display string.
func (i DownloadItem) JoinedArtists() string {
	return strings.Join(i.Artists, ", ")
}

// DownloadList is an ordered sequence of items sharing a destination and a
// kind. Insertion order is the processing order.
type DownloadList struct {
	Name  string         `json:"name"`
	Kind  ListKind       `json:"kind"`
	Items []DownloadItem `json:"items"`
}

// Outcome is the terminal state of one item within a run.
type Outcome int

const (
	// OutcomeCached means a cache record existed and all work was skipped.
	OutcomeCached Outcome = iota
	// OutcomeDownloaded means the item was acquired and recorded this run.
	OutcomeDownloaded
	// OutcomeFailed means resolution or acquisition exhausted every option.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCached:
		return "cached"
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// ProcessingResult joins an item back to what happened to it, replacing the
// mutable cached/failed flags the items themselves used to carry.
type ProcessingResult struct {
	ItemID  string
	Outcome Outcome
}

// ItemReport is one row of the end-of-run report.
type ItemReport struct {
	Name    string
	Album   string
	Artist  string
	ID      string
	Outcome Outcome
}

// ListReport summarizes one processed list.
type ListReport struct {
	Name  string
	Kind  ListKind
	Items []ItemReport
}

// Failed returns only the rows for items that exhausted all candidates.
func (l ListReport) Failed() []ItemReport {
	var failed []ItemReport
	for _, item := range l.Items {
		if item.Outcome == OutcomeFailed {
			failed = append(failed, item)
		}
	}
	return failed
}

// Counts returns how many items were cached, downloaded and failed.
func (l ListReport) Counts() (cached, downloaded, failed int) {
	for _, item := range l.Items {
		switch item.Outcome {
		case OutcomeCached:
			cached++
		case OutcomeDownloaded:
			downloaded++
		case OutcomeFailed:
			failed++
		}
	}
	return cached, downloaded, failed
}

// RunReport is returned by the orchestrator after all lists complete.
type RunReport struct {
	Lists []ListReport
}

// HasFailures reports whether any list contains a failed item.
func (r RunReport) HasFailures() bool {
	for _, list := range r.Lists {
		if len(list.Failed()) > 0 {
			return true
		}
	}
	return false
}
