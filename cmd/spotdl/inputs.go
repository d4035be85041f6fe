package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"spotdl/internal/model"
	"spotdl/internal/scrape"
	"spotdl/internal/segments"
	"spotdl/internal/ui"
)

// metaScraper names direct links that arrive without catalog metadata.
type metaScraper interface {
	PageMeta(ctx context.Context, rawURL string) (scrape.PageMeta, error)
}

// loadInputs turns the positional arguments into download lists. Manifest
// .json files carry their own lists; .txt files expand to one URL per
// line; bare youtube URLs are gathered into a single direct-link list,
// named by scraping each page's OpenGraph tags.
func loadInputs(ctx context.Context, inputs []string, meta metaScraper, printer *ui.Printer) ([]model.DownloadList, error) {
	expanded, err := expandInputs(inputs)
	if err != nil {
		return nil, err
	}

	var (
		lists  []model.DownloadList
		direct model.DownloadList
	)
	direct.Name = "youtube"
	direct.Kind = model.KindYouTube

	for _, input := range expanded {
		switch {
		case strings.HasSuffix(input, ".json"):
			fromFile, err := loadManifest(input)
			if err != nil {
				return nil, err
			}
			lists = append(lists, fromFile...)
		case segments.VideoID(input) != "":
			direct.Items = append(direct.Items, directItem(ctx, input, meta, printer))
		default:
			return nil, fmt.Errorf("unrecognized input %q: not a manifest, .txt list or youtube URL", input)
		}
	}

	if len(direct.Items) > 0 {
		lists = append(lists, direct)
	}
	if len(lists) == 0 {
		return nil, fmt.Errorf("no download lists found in the given inputs")
	}
	return lists, nil
}

// loadManifest reads one .json file holding either a single list or an
// array of lists.
func loadManifest(path string) ([]model.DownloadList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var many []model.DownloadList
	if err := json.Unmarshal(data, &many); err == nil {
		return many, nil
	}
	var one model.DownloadList
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return []model.DownloadList{one}, nil
}

// directItem builds a DownloadItem for a bare youtube URL. The page's
// og:title names the file; when scraping fails the video id stands in, so
// one unreachable page never sinks the run.
func directItem(ctx context.Context, rawURL string, meta metaScraper, printer *ui.Printer) model.DownloadItem {
	videoID := segments.VideoID(rawURL)
	item := model.DownloadItem{
		ID:        videoID,
		Name:      videoID,
		DirectURL: rawURL,
	}
	pageMeta, err := meta.PageMeta(ctx, rawURL)
	if err != nil {
		printer.Warnf("Could not read page metadata for %s: %v", rawURL, err)
		return item
	}
	item.Name = pageMeta.Title
	item.CoverURL = pageMeta.Image
	return item
}

// expandInputs inlines .txt files and deduplicates, preserving first-seen
// order.
func expandInputs(inputs []string) ([]string, error) {
	var (
		processed []string
		txtPaths  []string
	)
	for _, input := range inputs {
		if strings.HasSuffix(input, ".txt") && !contains(txtPaths, input) {
			lines, err := readTxtFile(input)
			if err != nil {
				return nil, err
			}
			for _, line := range lines {
				line = strings.TrimSuffix(line, "/")
				if !contains(processed, line) {
					processed = append(processed, line)
				}
			}
			txtPaths = append(txtPaths, input)
		} else if !strings.HasSuffix(input, ".txt") {
			input = strings.TrimSuffix(input, "/")
			if !contains(processed, input) {
				processed = append(processed, input)
			}
		}
	}
	return processed, nil
}

func readTxtFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func contains(lines []string, value string) bool {
	for _, line := range lines {
		if strings.EqualFold(line, value) {
			return true
		}
	}
	return false
}
