// Package segments turns a set of time intervals to excise from a source
// recording (sponsor reads, intros, outros) into an ffmpeg filter graph
// that keeps only the complement, concatenated with timestamps reset so
// the output is contiguous.
package segments

import (
	"fmt"
	"sort"
	"strings"
)

// Segment is a half-open time interval [Start, End) in seconds that should
// be removed from the source audio.
type Segment struct {
	Start float64
	End   float64
}

// Normalize sorts segments by start and merges overlapping or adjacent
// ones: a segment merges into its predecessor when its start is <= the
// predecessor's end, the merged end being the max of the two. The input
// slice is not modified.
func Normalize(segs []Segment) []Segment {
	if len(segs) == 0 {
		return nil
	}
	sorted := make([]Segment, len(segs))
	copy(sorted, segs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	merged := []Segment{sorted[0]}
	for _, seg := range sorted[1:] {
		last := &merged[len(merged)-1]
		if seg.Start <= last.End {
			if seg.End > last.End {
				last.End = seg.End
			}
			continue
		}
		merged = append(merged, seg)
	}
	return merged
}

// Complement returns the keep intervals between normalized removal
// segments over [0, total). A total of 0 means the track length is
// unknown; the final interval is then open-ended (End == 0).
// Zero-length intervals are dropped, never emitted.
func Complement(segs []Segment, total float64) []Segment {
	segs = Normalize(segs)
	var keeps []Segment
	cursor := 0.0
	for _, seg := range segs {
		if seg.Start > cursor {
			keeps = append(keeps, Segment{Start: cursor, End: seg.Start})
		}
		if seg.End > cursor {
			cursor = seg.End
		}
	}
	if total > 0 {
		if cursor < total {
			keeps = append(keeps, Segment{Start: cursor, End: total})
		}
	} else {
		keeps = append(keeps, Segment{Start: cursor})
	}
	return keeps
}

// FilterGraph is the intermediate representation of the trim+concat
// filter: an ordered list of keep intervals. Build it with Build and
// serialize it with String; keeping the two steps apart leaves the
// merge/complement logic testable without ffmpeg argument syntax.
type FilterGraph struct {
	keeps []Segment
}

// Build constructs the filter graph for removing segs from an audio
// stream. It returns nil when segs is empty: no filtering is required and
// the audio passes through untouched.
func Build(segs []Segment) *FilterGraph {
	if len(segs) == 0 {
		return nil
	}
	return &FilterGraph{keeps: Complement(segs, 0)}
}

// Keeps exposes the keep intervals in order. The final interval has
// End == 0, meaning it runs to the end of the source.
func (g *FilterGraph) Keeps() []Segment {
	return g.keeps
}

// OutputLabel is the stream label the serialized graph leaves its result
// on, for use with -map.
func (g *FilterGraph) OutputLabel() string {
	return "[outa]"
}

// String serializes the graph to an ffmpeg -filter_complex expression: one
// atrim per keep interval with presentation timestamps reset to zero,
// followed by a concat joining them in order.
func (g *FilterGraph) String() string {
	var sb strings.Builder
	labels := make([]string, 0, len(g.keeps))
	for i, keep := range g.keeps {
		if i > 0 {
			sb.WriteString(";")
		}
		label := fmt.Sprintf("[a%d]", i)
		sb.WriteString("[0:a]atrim=")
		if keep.End > 0 {
			fmt.Fprintf(&sb, "start=%s:end=%s", formatSeconds(keep.Start), formatSeconds(keep.End))
		} else {
			fmt.Fprintf(&sb, "start=%s", formatSeconds(keep.Start))
		}
		sb.WriteString(",asetpts=PTS-STARTPTS")
		sb.WriteString(label)
		labels = append(labels, label)
	}
	if len(labels) == 1 {
		// A single keep interval needs no concat; relabel it directly.
		return strings.TrimSuffix(sb.String(), labels[0]) + g.OutputLabel()
	}
	sb.WriteString(";")
	sb.WriteString(strings.Join(labels, ""))
	fmt.Fprintf(&sb, "concat=n=%d:v=0:a=1%s", len(labels), g.OutputLabel())
	return sb.String()
}

// formatSeconds prints a duration without a trailing ".000000" for whole
// values, matching how the intervals read in logs.
func formatSeconds(s float64) string {
	if s == float64(int64(s)) {
		return fmt.Sprintf("%d", int64(s))
	}
	return strings.TrimRight(fmt.Sprintf("%.6f", s), "0")
}
