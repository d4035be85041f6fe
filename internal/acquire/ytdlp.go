package acquire

import (
	"context"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

// YtdlpDownloader pulls the best audio stream of a youtube video through
// yt-dlp. Extraction details (signatures, formats) stay the binary's
// problem; transcoding and filtering happen in our own ffmpeg pass.
type YtdlpDownloader struct {
	// ProgressInterval throttles progress callbacks.
	ProgressInterval time.Duration
}

// NewYtdlpDownloader returns a downloader with a 500ms progress interval.
func NewYtdlpDownloader() *YtdlpDownloader {
	return &YtdlpDownloader{ProgressInterval: 500 * time.Millisecond}
}

func (d *YtdlpDownloader) Download(ctx context.Context, url, dest string, progress ProgressFunc) error {
	dl := ytdlp.New().
		NoPlaylist().
		Format("bestaudio/best").
		ForceOverwrites().
		Output(dest)

	if progress != nil {
		dl.ProgressFunc(d.ProgressInterval, func(update ytdlp.ProgressUpdate) {
			var speed int64
			if !update.Started.IsZero() {
				if elapsed := time.Since(update.Started).Seconds(); elapsed > 0 {
					speed = int64(float64(update.DownloadedBytes) / elapsed)
				}
			}
			progress(int64(update.DownloadedBytes), int64(update.TotalBytes), speed)
		})
	}

	_, err := dl.Run(ctx, url)
	return err
}
