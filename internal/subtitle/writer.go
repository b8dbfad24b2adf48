// Package subtitle serializes cue sequences into SRT and WebVTT files.
package subtitle

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"voxsub/internal/pipeline"
)

// Format selects the subtitle file format.
type Format string

const (
	SRT Format = "srt"
	VTT Format = "vtt"
)

// ParseFormat maps a user-supplied format name onto a Format, defaulting
// to SRT for anything unrecognized.
func ParseFormat(s string) Format {
	if strings.EqualFold(s, string(VTT)) {
		return VTT
	}
	return SRT
}

// FormatFromPath infers the subtitle format from an output file extension.
func FormatFromPath(path string) Format {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return ParseFormat(ext)
}

// Write serializes cues in the given format.
func Write(w io.Writer, cues []pipeline.Cue, format Format) error {
	if format == VTT {
		return WriteVTT(w, cues)
	}
	return WriteSRT(w, cues)
}

// WriteSRT writes numbered SRT blocks with HH:MM:SS,mmm timestamps.
func WriteSRT(w io.Writer, cues []pipeline.Cue) error {
	for i, cue := range cues {
		_, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n",
			i+1, timestamp(cue.Start, ','), timestamp(cue.End, ','), strings.TrimSpace(cue.Text))
		if err != nil {
			return fmt.Errorf("write SRT block %d: %w", i+1, err)
		}
	}
	return nil
}

// WriteVTT writes a WebVTT file with HH:MM:SS.mmm timestamps.
func WriteVTT(w io.Writer, cues []pipeline.Cue) error {
	if _, err := io.WriteString(w, "WEBVTT\n\n"); err != nil {
		return fmt.Errorf("write VTT header: %w", err)
	}
	for i, cue := range cues {
		_, err := fmt.Fprintf(w, "%s --> %s\n%s\n\n",
			timestamp(cue.Start, '.'), timestamp(cue.End, '.'), strings.TrimSpace(cue.Text))
		if err != nil {
			return fmt.Errorf("write VTT block %d: %w", i+1, err)
		}
	}
	return nil
}

// timestamp renders seconds as HH:MM:SS<sep>mmm. Negative inputs clamp to
// zero. Rounding happens on total milliseconds so 59.9996 s carries into
// the next full second instead of printing 1000 ms.
func timestamp(seconds float64, sep byte) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(math.Round(seconds * 1000))
	millis := totalMillis % 1000
	totalSec := totalMillis / 1000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d",
		totalSec/3600, (totalSec%3600)/60, totalSec%60, sep, millis)
}
