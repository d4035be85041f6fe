package acquire

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"spotdl/internal/segments"
	"spotdl/internal/ui"
)

type fakeDownloader struct {
	calls []string
	fail  bool
	data  string
}

func (f *fakeDownloader) Download(_ context.Context, url, dest string, _ ProgressFunc) error {
	f.calls = append(f.calls, url)
	if f.fail {
		return errors.New("download refused")
	}
	return os.WriteFile(dest, []byte(f.data), 0644)
}

type fakeSegments struct {
	segs []segments.Segment
}

func (f *fakeSegments) Segments(context.Context, string) []segments.Segment {
	return f.segs
}

func newTestEngine(dl Downloader) *Engine {
	e := NewEngine(dl, dl, &fakeSegments{}, ui.NewPlainPrinter(io.Discard), "ffmpeg")
	e.transcode = func(_ context.Context, input, output string, _ *segments.FilterGraph) error {
		data, err := os.ReadFile(input)
		if err != nil {
			return err
		}
		return os.WriteFile(output, data, 0644)
	}
	e.verify = func(string) error { return nil }
	return e
}

func TestAcquireFirstCandidateWins(t *testing.T) {
	dl := &fakeDownloader{data: "audio"}
	e := newTestEngine(dl)

	out := filepath.Join(t.TempDir(), "song.mp3")
	ok := e.Acquire(context.Background(), []string{
		"https://www.youtube.com/watch?v=one",
		"https://www.youtube.com/watch?v=two",
	}, out)
	if !ok {
		t.Fatalf("expected success")
	}
	if len(dl.calls) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(dl.calls))
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	if string(data) != "audio" {
		t.Fatalf("unexpected output contents: %q", data)
	}
}

func TestAcquireExhaustsAllCandidates(t *testing.T) {
	dl := &fakeDownloader{fail: true}
	e := newTestEngine(dl)

	out := filepath.Join(t.TempDir(), "song.mp3")
	candidates := []string{"bad1", "bad2", "bad3"}
	ok := e.Acquire(context.Background(), candidates, out)
	if ok {
		t.Fatalf("expected failure when every candidate fails")
	}
	if len(dl.calls) != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", len(dl.calls))
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("expected no output file, stat err: %v", err)
	}
}

func TestAcquireEmptyCandidateList(t *testing.T) {
	dl := &fakeDownloader{}
	e := newTestEngine(dl)

	if ok := e.Acquire(context.Background(), nil, filepath.Join(t.TempDir(), "x.mp3")); ok {
		t.Fatalf("expected failure for empty candidate list")
	}
	if len(dl.calls) != 0 {
		t.Fatalf("expected no attempts, got %d", len(dl.calls))
	}
}

func TestAcquireAdvancesPastTranscodeFailure(t *testing.T) {
	dl := &fakeDownloader{data: "audio"}
	e := newTestEngine(dl)
	attempts := 0
	e.transcode = func(_ context.Context, _, output string, _ *segments.FilterGraph) error {
		attempts++
		if attempts == 1 {
			return errors.New("decode error")
		}
		return os.WriteFile(output, []byte("audio"), 0644)
	}

	out := filepath.Join(t.TempDir(), "song.mp3")
	ok := e.Acquire(context.Background(), []string{"u1", "u2"}, out)
	if !ok {
		t.Fatalf("expected second candidate to succeed")
	}
	if attempts != 2 {
		t.Fatalf("expected 2 transcode attempts, got %d", attempts)
	}
}

func TestAcquireVerificationFailureDiscardsOutput(t *testing.T) {
	dl := &fakeDownloader{data: "not really audio"}
	e := newTestEngine(dl)
	e.verify = func(string) error { return errors.New("no frames") }

	out := filepath.Join(t.TempDir(), "song.mp3")
	if ok := e.Acquire(context.Background(), []string{"u1"}, out); ok {
		t.Fatalf("expected failure on verification error")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("expected no final artifact, stat err: %v", err)
	}
	if _, err := os.Stat(out + ".part"); !os.IsNotExist(err) {
		t.Fatalf("expected scratch file removed, stat err: %v", err)
	}
}

func TestAcquireAppliesSegmentFilter(t *testing.T) {
	dl := &fakeDownloader{data: "audio"}
	e := newTestEngine(dl)
	e.Segments = &fakeSegments{segs: []segments.Segment{{Start: 0, End: 10}}}

	var gotGraph *segments.FilterGraph
	e.transcode = func(_ context.Context, _, output string, graph *segments.FilterGraph) error {
		gotGraph = graph
		return os.WriteFile(output, []byte("x"), 0644)
	}

	out := filepath.Join(t.TempDir(), "song.mp3")
	if ok := e.Acquire(context.Background(), []string{"u1"}, out); !ok {
		t.Fatalf("expected success")
	}
	if gotGraph == nil {
		t.Fatalf("expected a filter graph for non-empty segments")
	}
	if !strings.Contains(gotGraph.String(), "atrim=start=10") {
		t.Fatalf("unexpected graph: %s", gotGraph.String())
	}
}

func TestAcquireStopsOnCancelledContext(t *testing.T) {
	dl := &fakeDownloader{data: "audio"}
	e := newTestEngine(dl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := filepath.Join(t.TempDir(), "song.mp3")
	if ok := e.Acquire(ctx, []string{"u1", "u2"}, out); ok {
		t.Fatalf("expected failure after cancellation")
	}
	if len(dl.calls) != 0 {
		t.Fatalf("no candidates should be tried after cancellation, got %d", len(dl.calls))
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("expected no output file, stat err: %v", err)
	}
}

func TestFetchInputResolvesHlsMaster(t *testing.T) {
	master := "#EXTM3U\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=64000\nlow/index.m3u8\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=256000\nhigh/index.m3u8\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(master))
	}))
	defer srv.Close()

	dl := &fakeDownloader{}
	e := newTestEngine(dl)

	input, cleanup, err := e.fetchInput(context.Background(), srv.URL+"/master.m3u8", filepath.Join(t.TempDir(), "x.mp3"))
	defer cleanup()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input != srv.URL+"/high/index.m3u8" {
		t.Fatalf("expected best-bandwidth variant, got %s", input)
	}
	if len(dl.calls) != 0 {
		t.Fatalf("HLS input should not be downloaded up front")
	}
}

func TestVerifyPlayableRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.mp3")
	if err := os.WriteFile(path, []byte("definitely not an mpeg stream"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := verifyPlayable(path); err == nil {
		t.Fatalf("expected verification error for garbage file")
	}
}
