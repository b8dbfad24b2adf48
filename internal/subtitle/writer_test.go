package subtitle

import (
	"strings"
	"testing"

	"voxsub/internal/pipeline"
)

func TestTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		sep     byte
		want    string
	}{
		{0, ',', "00:00:00,000"},
		{1.5, ',', "00:00:01,500"},
		{3661.25, ',', "01:01:01,250"},
		{-2.0, ',', "00:00:00,000"},
		{59.9996, ',', "00:01:00,000"},
		{0.083, '.', "00:00:00.083"},
		{7200.5, '.', "02:00:00.500"},
	}
	for _, tt := range tests {
		if got := timestamp(tt.seconds, tt.sep); got != tt.want {
			t.Errorf("timestamp(%f) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestWriteSRT(t *testing.T) {
	cues := []pipeline.Cue{
		{Start: 0, End: 2.5, Text: "Hello world."},
		{Start: 2.5, End: 5, Text: "Second cue."},
	}
	var sb strings.Builder
	if err := WriteSRT(&sb, cues); err != nil {
		t.Fatal(err)
	}
	want := "1\n00:00:00,000 --> 00:00:02,500\nHello world.\n\n" +
		"2\n00:00:02,500 --> 00:00:05,000\nSecond cue.\n\n"
	if sb.String() != want {
		t.Errorf("got:\n%q\nwant:\n%q", sb.String(), want)
	}
}

func TestWriteVTT(t *testing.T) {
	cues := []pipeline.Cue{{Start: 1.0, End: 3.25, Text: "Hi."}}
	var sb strings.Builder
	if err := WriteVTT(&sb, cues); err != nil {
		t.Fatal(err)
	}
	want := "WEBVTT\n\n00:00:01.000 --> 00:00:03.250\nHi.\n\n"
	if sb.String() != want {
		t.Errorf("got %q, want %q", sb.String(), want)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"captions.srt", SRT},
		{"captions.vtt", VTT},
		{"captions.VTT", VTT},
		{"captions.txt", SRT},
		{"captions", SRT},
	}
	for _, tt := range tests {
		if got := FormatFromPath(tt.path); got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
