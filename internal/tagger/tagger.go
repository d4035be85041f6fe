// Package tagger writes descriptive metadata into acquired audio files:
// ID3v2 text frames, a popularity rating, optional BPM and lyrics, and
// embedded cover art fetched from the catalog's cover URL.
package tagger

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/cenkalti/backoff/v4"

	"spotdl/internal/model"
	"spotdl/internal/ui"
)

// placeholderCover is embedded cover art for items without a usable cover
// URL, and the fallback when fetching one keeps failing.
//
//go:embed placeholder.png
var placeholderCover []byte

// Tagger composes and writes the tag set for acquired files.
type Tagger struct {
	HTTP    *http.Client
	Printer *ui.Printer

	// FetchRetries is how many times a failed cover download is retried
	// before falling back to the embedded placeholder.
	FetchRetries uint64

	// IncludeLyrics writes lyrics carried on items as USLT frames.
	IncludeLyrics bool
}

// New returns a Tagger with a 30-second cover fetch timeout and a single
// retry.
func New(printer *ui.Printer) *Tagger {
	return &Tagger{
		HTTP:         &http.Client{Timeout: 30 * time.Second},
		Printer:      printer,
		FetchRetries: 1,
	}
}

// Tag writes item's metadata into the audio file at path. The temporary
// cover image never outlives the call, whatever the outcome.
func (t *Tagger) Tag(ctx context.Context, path string, item model.DownloadItem) error {
	coverPath := coverPathFor(path)
	cover, mime := t.fetchCover(ctx, item.CoverURL)
	if err := os.WriteFile(coverPath, cover, 0644); err != nil {
		return fmt.Errorf("failed to save cover image: %w", err)
	}
	defer os.Remove(coverPath)

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open audio file for tagging: %w", err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(item.Name)
	tag.SetArtist(item.PrimaryArtist())
	tag.SetAlbum(item.AlbumName)
	tag.AddTextFrame("TPE2", id3v2.EncodingUTF8, item.JoinedArtists())

	year, month, day := splitReleaseDate(item.ReleaseDate)
	if year != "" {
		tag.SetYear(year)
	}
	if month != "" && day != "" {
		// TDAT wants DDMM.
		tag.AddTextFrame("TDAT", id3v2.EncodingUTF8, day+month)
	}
	if item.TotalTracks > 0 {
		tag.AddTextFrame("TRCK", id3v2.EncodingUTF8,
			fmt.Sprintf("%d/%d", item.TrackNumber, item.TotalTracks))
	} else if item.TrackNumber > 0 {
		tag.AddTextFrame("TRCK", id3v2.EncodingUTF8, fmt.Sprintf("%d", item.TrackNumber))
	}
	if item.BPM > 0 {
		tag.AddTextFrame("TBPM", id3v2.EncodingUTF8, fmt.Sprintf("%d", item.BPM))
	}

	tag.AddFrame(tag.CommonID("Popularimeter"), id3v2.PopularimeterFrame{
		Email:   "spotdl",
		Rating:  popularityRating(item.Popularity),
		Counter: big.NewInt(0),
	})

	if t.IncludeLyrics && item.Lyrics != "" {
		tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
			Encoding:          id3v2.EncodingUTF8,
			Language:          "eng",
			ContentDescriptor: "",
			Lyrics:            item.Lyrics,
		})
	}

	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    mime,
		PictureType: id3v2.PTFrontCover,
		Description: "Front cover",
		Picture:     cover,
	})

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to write tags: %w", err)
	}
	return nil
}

// fetchCover downloads the cover image, retrying once on failure; after
// the retries it falls back to the embedded placeholder, which is also
// used directly when no URL is set. It never fails: cover trouble must
// not surface as an item failure.
func (t *Tagger) fetchCover(ctx context.Context, coverURL string) (data []byte, mime string) {
	if strings.TrimSpace(coverURL) == "" {
		return placeholderCover, "image/png"
	}

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := t.HTTP.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("cover fetch: %s", resp.Status)
		}
		body, err = readAll(resp)
		if err != nil {
			return err
		}
		if detected := http.DetectContentType(body); !strings.HasPrefix(detected, "image/") {
			return fmt.Errorf("cover is not an image (%s)", detected)
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), t.FetchRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		if t.Printer != nil {
			t.Printer.Warnf("Cover art unavailable, using placeholder: %v", err)
		}
		return placeholderCover, "image/png"
	}
	return body, http.DetectContentType(body)
}

func readAll(resp *http.Response) ([]byte, error) {
	// Covers are small; cap reads at 10 MiB to stay safe against a
	// misbehaving server.
	const maxCoverBytes = 10 << 20
	body := make([]byte, 0, 64<<10)
	buf := make([]byte, 32<<10)
	for {
		n, err := resp.Body.Read(buf)
		body = append(body, buf[:n]...)
		if len(body) > maxCoverBytes {
			return nil, errors.New("cover image too large")
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return body, nil
			}
			return body, err
		}
	}
}

// coverPathFor mirrors the audio file name with a .jpg extension.
func coverPathFor(audioPath string) string {
	if idx := strings.LastIndex(audioPath, "."); idx > 0 {
		return audioPath[:idx] + ".jpg"
	}
	return audioPath + ".jpg"
}

// splitReleaseDate breaks a "YYYY-MM-DD" catalog date into parts,
// defaulting missing or malformed parts to empty rather than failing.
func splitReleaseDate(date string) (year, month, day string) {
	parts := strings.Split(strings.TrimSpace(date), "-")
	clean := func(s string, width int) string {
		if s == "" || len(s) > width {
			return ""
		}
		for _, r := range s {
			if r < '0' || r > '9' {
				return ""
			}
		}
		for len(s) < width {
			s = "0" + s
		}
		return s
	}
	if len(parts) > 0 {
		year = clean(parts[0], 4)
	}
	if len(parts) > 1 {
		month = clean(parts[1], 2)
	}
	if len(parts) > 2 {
		day = clean(parts[2], 2)
	}
	return year, month, day
}

// popularityRating maps a 0-100 catalog popularity onto the 0-255 POPM
// scale.
func popularityRating(popularity int) uint8 {
	if popularity <= 0 {
		return 0
	}
	if popularity >= 100 {
		return 255
	}
	return uint8(popularity * 255 / 100)
}
