// Package acquire downloads and transcodes candidate sources into the
// final audio file. Candidates are tried strictly in order; the first
// success wins and failures advance to the next candidate, never retrying
// the same one.
package acquire

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"spotdl/internal/segments"
	"spotdl/internal/ui"
)

// DefaultBitrate is the target audio bitrate in kbps.
const DefaultBitrate = 256

// DefaultAttemptTimeout bounds one candidate's download+transcode; past it
// the attempt counts as failed and the loop advances.
const DefaultAttemptTimeout = 30 * time.Minute

// ProgressFunc receives byte counts during a download.
type ProgressFunc func(downloaded, total, speed int64)

// Downloader fetches a source URL into a local file.
type Downloader interface {
	Download(ctx context.Context, url, dest string, progress ProgressFunc) error
}

// SegmentSource supplies removal segments per source URL. Implementations
// must swallow their own failures: absent segment data is "no segments".
type SegmentSource interface {
	Segments(ctx context.Context, url string) []segments.Segment
}

// Engine tries candidates in order and writes outPath only on success.
type Engine struct {
	YouTube  Downloader
	Direct   Downloader
	Segments SegmentSource
	Printer  *ui.Printer
	HTTP     *http.Client

	Bitrate        int
	AttemptTimeout time.Duration

	// transcode and verify are swappable for tests; the defaults shell out
	// to ffmpeg and frame-decode the result.
	transcode func(ctx context.Context, input, output string, graph *segments.FilterGraph) error
	verify    func(path string) error
}

// NewEngine wires the default ffmpeg transcoder and mp3 verification.
func NewEngine(youtube, direct Downloader, segs SegmentSource, printer *ui.Printer, ffmpegPath string) *Engine {
	e := &Engine{
		YouTube:        youtube,
		Direct:         direct,
		Segments:       segs,
		Printer:        printer,
		HTTP:           &http.Client{Timeout: 30 * time.Second},
		Bitrate:        DefaultBitrate,
		AttemptTimeout: DefaultAttemptTimeout,
	}
	e.transcode = func(ctx context.Context, input, output string, graph *segments.FilterGraph) error {
		return ffmpegTranscode(ctx, ffmpegPath, input, output, graph, e.Bitrate)
	}
	e.verify = verifyPlayable
	return e
}

// Acquire tries each candidate in order, streaming it through the segment
// filter into outPath. It returns true on the first success and false once
// every candidate has failed. No partial file remains at outPath on
// failure.
func (e *Engine) Acquire(ctx context.Context, candidates []string, outPath string) bool {
	for i, candidate := range candidates {
		if ctx.Err() != nil {
			return false
		}
		e.Printer.Downloadf("Candidate %d/%d: %s", i+1, len(candidates), candidate)
		if err := e.attempt(ctx, candidate, outPath); err != nil {
			e.Printer.Warnf("Candidate failed: %v", err)
			continue
		}
		return true
	}
	return false
}

func (e *Engine) attempt(ctx context.Context, candidate, outPath string) error {
	timeout := e.AttemptTimeout
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Segment lookup failures are swallowed upstream; nil means no
	// filtering and the audio passes through whole.
	var graph *segments.FilterGraph
	if e.Segments != nil {
		graph = segments.Build(e.Segments.Segments(ctx, candidate))
	}

	input, cleanup, err := e.fetchInput(ctx, candidate, outPath)
	if err != nil {
		return err
	}
	defer cleanup()

	// Transcode into a scratch path so outPath never holds a corrupt
	// artifact; -y re-truncates leftovers from an interrupted run.
	partPath := outPath + ".part"
	defer os.Remove(partPath)

	if err := e.transcode(ctx, input, partPath, graph); err != nil {
		return err
	}
	if err := e.verify(partPath); err != nil {
		return fmt.Errorf("transcoded output failed verification: %w", err)
	}
	return os.Rename(partPath, outPath)
}

// fetchInput materializes the candidate into something ffmpeg can read:
// youtube links are downloaded through yt-dlp, HLS manifests resolve to
// their best variant URL, anything else is fetched over plain HTTP.
func (e *Engine) fetchInput(ctx context.Context, candidate, outPath string) (string, func(), error) {
	noop := func() {}
	if strings.Contains(candidate, ".m3u8") {
		variant, err := bestVariantURL(ctx, e.HTTP, candidate)
		if err != nil {
			return "", noop, err
		}
		return variant, noop, nil
	}

	downloader := e.Direct
	if segments.VideoID(candidate) != "" {
		downloader = e.YouTube
	}
	sourcePath := outPath + ".source"
	cleanup := func() { os.Remove(sourcePath) }
	if err := downloader.Download(ctx, candidate, sourcePath, e.progressFunc()); err != nil {
		cleanup()
		return "", noop, err
	}
	return sourcePath, cleanup, nil
}

func (e *Engine) progressFunc() ProgressFunc {
	return func(downloaded, total, speed int64) {
		percentage := 0
		totalStr := "unknown"
		if total > 0 {
			percentage = int(float64(downloaded) / float64(total) * 100)
			totalStr = humanize.Bytes(uint64(total))
		}
		e.Printer.Progress(percentage, humanize.Bytes(uint64(speed)), humanize.Bytes(uint64(downloaded)), totalStr)
	}
}
