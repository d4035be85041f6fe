package segments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestNormalizeMergesOverlaps(t *testing.T) {
	in := []Segment{{0, 5}, {3, 8}, {20, 25}}
	want := []Segment{{0, 8}, {20, 25}}
	if got := Normalize(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("normalize: got %v want %v", got, want)
	}
}

func TestNormalizeSortsAndMergesAdjacent(t *testing.T) {
	in := []Segment{{10, 12}, {2, 4}, {4, 6}}
	want := []Segment{{2, 6}, {10, 12}}
	if got := Normalize(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("normalize: got %v want %v", got, want)
	}
}

func TestNormalizeContainedSegment(t *testing.T) {
	in := []Segment{{0, 10}, {2, 4}}
	want := []Segment{{0, 10}}
	if got := Normalize(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("normalize: got %v want %v", got, want)
	}
}

func TestComplementOverKnownDuration(t *testing.T) {
	in := []Segment{{0, 5}, {3, 8}, {20, 25}}
	want := []Segment{{8, 20}, {25, 30}}
	if got := Complement(in, 30); !reflect.DeepEqual(got, want) {
		t.Fatalf("complement: got %v want %v", got, want)
	}
}

func TestComplementOpenEnded(t *testing.T) {
	in := []Segment{{5, 10}}
	want := []Segment{{0, 5}, {Start: 10}}
	if got := Complement(in, 0); !reflect.DeepEqual(got, want) {
		t.Fatalf("complement: got %v want %v", got, want)
	}
}

func TestComplementDropsLeadingZeroLengthInterval(t *testing.T) {
	// A segment starting at zero must not produce an empty leading trim.
	in := []Segment{{0, 12}}
	want := []Segment{{Start: 12}}
	if got := Complement(in, 0); !reflect.DeepEqual(got, want) {
		t.Fatalf("complement: got %v want %v", got, want)
	}
}

func TestBuildEmptyReturnsNil(t *testing.T) {
	if g := Build(nil); g != nil {
		t.Fatalf("expected nil graph for empty segment set, got %v", g)
	}
}

func TestFilterGraphString(t *testing.T) {
	g := Build([]Segment{{5, 10}})
	want := "[0:a]atrim=start=0:end=5,asetpts=PTS-STARTPTS[a0];" +
		"[0:a]atrim=start=10,asetpts=PTS-STARTPTS[a1];" +
		"[a0][a1]concat=n=2:v=0:a=1[outa]"
	if got := g.String(); got != want {
		t.Fatalf("filter graph:\n got %s\nwant %s", got, want)
	}
}

func TestFilterGraphSingleKeepSkipsConcat(t *testing.T) {
	g := Build([]Segment{{0, 12}})
	want := "[0:a]atrim=start=12,asetpts=PTS-STARTPTS[outa]"
	if got := g.String(); got != want {
		t.Fatalf("filter graph: got %s want %s", got, want)
	}
}

func TestFilterGraphFractionalSeconds(t *testing.T) {
	g := Build([]Segment{{1.5, 2.25}})
	want := "[0:a]atrim=start=0:end=1.5,asetpts=PTS-STARTPTS[a0];" +
		"[0:a]atrim=start=2.25,asetpts=PTS-STARTPTS[a1];" +
		"[a0][a1]concat=n=2:v=0:a=1[outa]"
	if got := g.String(); got != want {
		t.Fatalf("filter graph:\n got %s\nwant %s", got, want)
	}
}

func TestVideoID(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://m.youtube.com/watch?v=abc123&t=10", "abc123"},
		{"https://www.youtube.com/shorts/xyz789", "xyz789"},
		{"https://example.com/watch?v=nope", ""},
		{"not a url at all \x7f", ""},
	}
	for _, c := range cases {
		if got := VideoID(c.url); got != c.want {
			t.Fatalf("VideoID(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}

func TestSponsorBlockClientParsesSegments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("videoID") != "abc123" {
			t.Errorf("unexpected videoID: %s", r.URL.Query().Get("videoID"))
		}
		w.Write([]byte(`[{"segment":[0,5.5],"category":"intro"},{"segment":[60,63],"category":"sponsor"}]`))
	}))
	defer srv.Close()

	client := NewSponsorBlockClient()
	client.BaseURL = srv.URL

	got := client.Segments(context.Background(), "https://www.youtube.com/watch?v=abc123")
	want := []Segment{{0, 5.5}, {60, 63}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("segments: got %v want %v", got, want)
	}
}

func TestSponsorBlockClientSwallowsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewSponsorBlockClient()
	client.BaseURL = srv.URL

	if got := client.Segments(context.Background(), "https://youtu.be/abc123"); got != nil {
		t.Fatalf("expected nil segments on 404, got %v", got)
	}

	// Unreachable server must also yield no segments, not an error.
	client.BaseURL = "http://127.0.0.1:1"
	if got := client.Segments(context.Background(), "https://youtu.be/abc123"); got != nil {
		t.Fatalf("expected nil segments on transport failure, got %v", got)
	}
}
