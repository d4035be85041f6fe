package acquire

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/grafov/m3u8"
)

// bestVariantURL resolves an HLS manifest to the URL ffmpeg should read:
// for a master playlist, the highest-bandwidth variant; for a media
// playlist, the manifest itself.
func bestVariantURL(ctx context.Context, client *http.Client, manifestURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.New(resp.Status)
	}

	playlist, listType, err := m3u8.DecodeFrom(resp.Body, true)
	if err != nil {
		return "", fmt.Errorf("failed to parse HLS manifest: %w", err)
	}
	if listType != m3u8.MASTER {
		return manifestURL, nil
	}

	master := playlist.(*m3u8.MasterPlaylist)
	if len(master.Variants) == 0 {
		return "", errors.New("HLS master playlist has no variants")
	}
	sort.Slice(master.Variants, func(x, y int) bool {
		return master.Variants[x].Bandwidth > master.Variants[y].Bandwidth
	})
	return resolveManifestURI(manifestURL, master.Variants[0].URI)
}

// resolveManifestURI makes a variant URI absolute against its manifest.
func resolveManifestURI(manifestURL, uri string) (string, error) {
	base, err := url.Parse(manifestURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
