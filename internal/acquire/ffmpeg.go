package acquire

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"spotdl/internal/segments"
)

// ffmpegTranscode converts input into a 44.1 kHz mp3 at the given bitrate,
// applying the segment filter graph when present. The output format is
// forced because the scratch path carries no .mp3 extension.
func ffmpegTranscode(ctx context.Context, ffmpegPath, input, output string, graph *segments.FilterGraph, bitrate int) error {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	args := []string{"-y", "-i", input}
	if graph != nil {
		args = append(args, "-filter_complex", graph.String(), "-map", graph.OutputLabel())
	} else {
		args = append(args, "-vn")
	}
	args = append(args,
		"-ar", "44100",
		"-b:a", fmt.Sprintf("%dk", bitrate),
		"-f", "mp3",
		output,
	)

	var errBuffer bytes.Buffer
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	cmd.Stderr = &errBuffer
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w\n%s", err, errBuffer.String())
	}
	return nil
}
