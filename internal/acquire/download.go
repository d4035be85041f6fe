package acquire

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"
)

// WriteCounter tracks download progress as bytes flow through it.
type WriteCounter struct {
	Total      int64
	Downloaded int64
	StartTime  int64
	OnProgress ProgressFunc
}

func (wc *WriteCounter) Write(p []byte) (int, error) {
	n := len(p)
	wc.Downloaded += int64(n)
	var speed int64
	if elapsed := time.Now().UnixMilli() - wc.StartTime; elapsed > 0 {
		speed = wc.Downloaded / elapsed * 1000
	}
	if wc.OnProgress != nil {
		wc.OnProgress(wc.Downloaded, wc.Total, speed)
	}
	return n, nil
}

// HTTPDownloader fetches direct file URLs. Output is opened in truncate
// mode so a leftover partial from an interrupted run is overwritten, not
// appended to.
type HTTPDownloader struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPDownloader returns a direct downloader with no overall timeout;
// the engine's per-attempt deadline bounds it through the context.
func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{Client: &http.Client{}}
}

func (d *HTTPDownloader) Download(ctx context.Context, url, dest string, progress ProgressFunc) error {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if d.UserAgent != "" {
		req.Header.Set("User-Agent", d.UserAgent)
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return errors.New(resp.Status)
	}

	counter := &WriteCounter{
		Total:      resp.ContentLength,
		StartTime:  time.Now().UnixMilli(),
		OnProgress: progress,
	}
	_, err = io.Copy(f, io.TeeReader(resp.Body, counter))
	return err
}
