// Package worker orchestrates the full subtitle run: audio extraction,
// windowed transcription, cue synthesis, and subtitle output.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"voxsub/internal/asr"
	"voxsub/internal/cache"
	"voxsub/internal/config"
	"voxsub/internal/ffmpeg"
	"voxsub/internal/pipeline"
	"voxsub/internal/subtitle"
)

// Options configures one subtitle run.
type Options struct {
	InputPath  string
	OutputPath string
	Format     string
	NoAsync    bool
	NoCache    bool
	ShowStats  bool
	Config     config.Config
}

// Run is the top-level orchestrator.
func Run(ctx context.Context, opts Options) error {
	if !ffmpeg.Available() {
		return fmt.Errorf("ffmpeg not found on PATH")
	}

	outputPath, format := resolveOutput(opts)
	slog.Info("processing file", "input", filepath.Base(opts.InputPath), "output", filepath.Base(outputPath))

	info := ffmpeg.LogMediaInfo(ctx, opts.InputPath)
	duration := 0.0
	if info != nil {
		duration = info.Duration
	}

	// Extract 16 kHz mono WAV into a temp dir; windows are cut from it.
	tmpDir, err := os.MkdirTemp("", "voxsub-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	wavPath := filepath.Join(tmpDir, "audio16k.wav")
	if err := ffmpeg.ExtractWAV(ctx, opts.InputPath, wavPath); err != nil {
		return fmt.Errorf("extract audio: %w", err)
	}

	started := time.Now()
	chunks, err := obtainChunks(ctx, opts, wavPath, tmpDir, duration)
	if err != nil {
		return err
	}
	elapsed := time.Since(started)

	if len(chunks) == 0 {
		return fmt.Errorf("empty transcript received")
	}

	slog.Info("generating subtitles", "chunks", len(chunks), "format", format)
	cues := pipeline.Synthesize(chunks, pipelineOptions(opts.Config.Subtitles))
	if len(cues) == 0 {
		return fmt.Errorf("cue synthesis produced no output")
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := subtitle.Write(out, cues, format); err != nil {
		out.Close()
		return fmt.Errorf("write subtitles: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}

	slog.Info("subtitles saved", "path", outputPath, "cues", len(cues))

	if hint := muxHint(opts.InputPath, outputPath, format); hint != "" {
		slog.Info("to embed the subtitles as a soft track", "cmd", hint)
	}

	if opts.ShowStats {
		fmt.Println(renderStats(cues, elapsed))
	}
	return nil
}

// resolveOutput decides the output path and format, mirroring each other:
// an explicit format wins, otherwise the output extension decides, with SRT
// as the fallback.
func resolveOutput(opts Options) (string, subtitle.Format) {
	format := subtitle.Format("")
	if opts.Format != "" {
		format = subtitle.ParseFormat(opts.Format)
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		ext := ".srt"
		if format == subtitle.VTT {
			ext = ".vtt"
		}
		outputPath = strings.TrimSuffix(opts.InputPath, filepath.Ext(opts.InputPath)) + ext
	}
	if format == "" {
		format = subtitle.FormatFromPath(outputPath)
	}
	return outputPath, format
}

// muxHint returns an ffmpeg invocation that embeds the generated SRT into
// the source video as a soft subtitle track, or "" when the input is not a
// video or the output is not SRT.
func muxHint(inputPath, subPath string, format subtitle.Format) string {
	if format != subtitle.SRT || !ffmpeg.IsVideoExtension(filepath.Ext(inputPath)) {
		return ""
	}
	return fmt.Sprintf("ffmpeg -i %q -i %q -c copy -c:s mov_text output_with_subs.mp4", inputPath, subPath)
}

// obtainChunks returns the transcript for the extracted WAV, from the cache
// when possible, otherwise by windowed transcription.
func obtainChunks(ctx context.Context, opts Options, wavPath, tmpDir string, duration float64) ([]pipeline.Chunk, error) {
	cfg := opts.Config

	var store *cache.Store
	var hash string
	if cfg.Cache.Enabled && !opts.NoCache {
		var err error
		hash, err = cache.HashFile(wavPath)
		if err != nil {
			return nil, fmt.Errorf("hash audio: %w", err)
		}
		store, err = cache.Open(cfg.Cache.Path)
		if err != nil {
			slog.Warn("transcript cache unavailable", "err", err)
		} else {
			defer store.Close()
			if chunks, ok, err := store.Chunks(ctx, hash, cfg.Transcriber.Model); err != nil {
				slog.Warn("cache lookup failed", "err", err)
			} else if ok {
				slog.Info("transcript cache hit", "chunks", len(chunks))
				return chunks, nil
			}
		}
	}

	windows := planWindows(duration, cfg.Transcriber.ChunkSec, cfg.Transcriber.StrideSec)
	slog.Info("transcribing", "windows", len(windows), "model", cfg.Transcriber.Model)

	client := asr.NewClient(cfg.Transcriber.BaseURL, cfg.Transcriber.APIKey, cfg.Transcriber.Model)
	if client.APIKey == "" {
		return nil, fmt.Errorf("no API key: set transcriber.api_key in the config or the MISTRAL_API_KEY environment variable")
	}

	var results []windowResult
	var err error
	if !opts.NoAsync && len(windows) > 1 {
		results, err = transcribeConcurrent(ctx, client, wavPath, tmpDir, windows, cfg.Transcriber)
	} else {
		results, err = transcribeSequential(ctx, client, wavPath, tmpDir, windows)
	}
	if err != nil {
		return nil, err
	}

	chunks := collectChunks(results)
	chunks = asr.RepairChunks(chunks)

	if store != nil && len(chunks) > 0 {
		name := filepath.Base(opts.InputPath)
		if err := store.SaveChunks(ctx, name, hash, cfg.Transcriber.Model, chunks); err != nil {
			slog.Warn("cache save failed", "err", err)
		}
	}
	return chunks, nil
}

// windowResult pairs a window index with its transcript chunks.
type windowResult struct {
	Index  int
	Chunks []pipeline.Chunk
}

// collectChunks restores window order and concatenates their chunks.
func collectChunks(results []windowResult) []pipeline.Chunk {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})

	var chunks []pipeline.Chunk
	for _, r := range results {
		chunks = append(chunks, r.Chunks...)
	}
	return chunks
}

// transcribeWindow cuts one window out of the WAV (unless the single window
// covers the whole file) and uploads it.
func transcribeWindow(ctx context.Context, client *asr.Client, wavPath, tmpDir string, w window, total int) ([]pipeline.Chunk, error) {
	path := wavPath
	if total > 1 {
		path = filepath.Join(tmpDir, fmt.Sprintf("window_%03d.wav", w.Index))
		if err := ffmpeg.CutWindow(ctx, wavPath, path, w.Start, w.Length); err != nil {
			return nil, fmt.Errorf("cut window %d: %w", w.Index+1, err)
		}
		defer os.Remove(path)
	}

	progress := func(read, totalBytes int64) {
		pct := 0.0
		if totalBytes > 0 {
			pct = math.Min(float64(read)/float64(totalBytes)*100, 100)
		}
		slog.Debug("upload progress",
			"window", fmt.Sprintf("%d/%d", w.Index+1, total),
			"percent", fmt.Sprintf("%.1f%%", pct))
	}

	return client.Transcribe(ctx, path, w.Start, w.Length, progress)
}

func pipelineOptions(s config.Subtitles) pipeline.Options {
	return pipeline.Options{
		MaxChars:    s.MaxChars,
		MinDuration: s.MinDuration,
		MaxDuration: s.MaxDuration,
		JoinGap:     s.JoinGap,
	}
}
