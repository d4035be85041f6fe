package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"spotdl/internal/model"
	"spotdl/internal/scrape"
	"spotdl/internal/ui"
)

type fakeScraper struct {
	meta scrape.PageMeta
	err  error
}

func (f *fakeScraper) PageMeta(context.Context, string) (scrape.PageMeta, error) {
	return f.meta, f.err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

const singleManifest = `{
  "name": "Road Trip",
  "kind": "song",
  "items": [
    {"id": "t1", "name": "Song One", "albumName": "Album", "artists": ["Artist"]}
  ]
}`

func TestLoadManifestSingleList(t *testing.T) {
	path := writeFile(t, "list.json", singleManifest)
	lists, err := loadManifest(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lists) != 1 || lists[0].Name != "Road Trip" || lists[0].Kind != model.KindSong {
		t.Fatalf("unexpected lists: %+v", lists)
	}
	if len(lists[0].Items) != 1 || lists[0].Items[0].ID != "t1" {
		t.Fatalf("unexpected items: %+v", lists[0].Items)
	}
}

func TestLoadManifestArray(t *testing.T) {
	path := writeFile(t, "lists.json", `[`+singleManifest+`,`+singleManifest+`]`)
	lists, err := loadManifest(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lists) != 2 {
		t.Fatalf("expected 2 lists, got %d", len(lists))
	}
}

func TestLoadInputsMixesManifestsAndUrls(t *testing.T) {
	manifest := writeFile(t, "list.json", singleManifest)
	scraper := &fakeScraper{meta: scrape.PageMeta{
		Title: "Artist - Live Set",
		Image: "https://img.example.com/cover.jpg",
	}}

	lists, err := loadInputs(context.Background(), []string{
		manifest,
		"https://www.youtube.com/watch?v=abc123def45",
	}, scraper, ui.NewPlainPrinter(io.Discard))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lists) != 2 {
		t.Fatalf("expected 2 lists, got %d", len(lists))
	}

	direct := lists[1]
	if direct.Kind != model.KindYouTube {
		t.Fatalf("kind = %q", direct.Kind)
	}
	item := direct.Items[0]
	if item.Name != "Artist - Live Set" {
		t.Fatalf("name = %q", item.Name)
	}
	if item.CoverURL != "https://img.example.com/cover.jpg" {
		t.Fatalf("cover = %q", item.CoverURL)
	}
	if item.ID != "abc123def45" {
		t.Fatalf("id = %q", item.ID)
	}
	if item.DirectURL != "https://www.youtube.com/watch?v=abc123def45" {
		t.Fatalf("directURL = %q", item.DirectURL)
	}
}

func TestLoadInputsScrapeFailureFallsBackToVideoID(t *testing.T) {
	printer := ui.NewPlainPrinter(io.Discard)
	scraper := &fakeScraper{err: errors.New("page unreachable")}

	lists, err := loadInputs(context.Background(), []string{
		"https://youtu.be/abc123def45",
	}, scraper, printer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lists[0].Items[0].Name != "abc123def45" {
		t.Fatalf("expected video id fallback name, got %q", lists[0].Items[0].Name)
	}
	if printer.Warnings() != 1 {
		t.Fatalf("expected a warning, got %d", printer.Warnings())
	}
}

func TestLoadInputsRejectsUnknownInput(t *testing.T) {
	_, err := loadInputs(context.Background(), []string{"https://example.com/song"}, &fakeScraper{}, ui.NewPlainPrinter(io.Discard))
	if err == nil {
		t.Fatalf("expected error for unrecognized input")
	}
}

func TestExpandInputsInlinesTxtAndDeduplicates(t *testing.T) {
	txt := writeFile(t, "urls.txt", "https://youtu.be/one\n\nhttps://youtu.be/two/\n")
	got, err := expandInputs([]string{
		txt,
		"https://youtu.be/two",
		"https://youtu.be/three",
		"https://youtu.be/three",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"https://youtu.be/one", "https://youtu.be/two", "https://youtu.be/three"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
