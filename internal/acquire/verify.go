package acquire

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tcolgate/mp3"
)

// verifyPlayable frame-decodes the transcoded file and checks it carries a
// strictly positive duration. A transcode that "succeeded" into an empty
// or truncated stream is treated as a failed attempt.
func verifyPlayable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var (
		frame   mp3.Frame
		skipped int
		total   time.Duration
	)
	decoder := mp3.NewDecoder(f)
	for {
		if err := decoder.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			// A decode error after valid frames is trailing garbage, not a
			// broken file.
			if total > 0 {
				break
			}
			return fmt.Errorf("mp3 decode: %w", err)
		}
		total += frame.Duration()
	}
	if total <= 0 {
		return errors.New("output contains no audio frames")
	}
	return nil
}
