package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"voxsub/internal/config"
	"voxsub/internal/ffmpeg"
	"voxsub/internal/worker"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate <input-file>",
	Short: "Transcribe audio/video into a subtitle file",
	Long: `Generate an SRT or WebVTT subtitle file from an audio or video file.
The audio is transcribed in overlapping windows and the chunk-level
transcripts are synthesized into readable, tightly-timed cues.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

var (
	output     string
	format     string
	model      string
	configPath string
	noAsync    bool
	noCache    bool
	showStats  bool

	chunkSec      int
	strideSec     int
	maxConcurrent int
	maxRetries    int
	rateLimit     int

	// Cue tuning flags.
	maxChars    int
	minDuration float64
	maxDuration float64
	joinGap     float64
)

func init() {
	defaults := config.Default()

	generateCmd.Flags().StringVarP(&output, "out", "o", "", "output subtitle path (default: <input>.srt)")
	generateCmd.Flags().StringVarP(&format, "format", "f", "", "subtitle format: srt, vtt (default: from output extension)")
	generateCmd.Flags().StringVarP(&model, "model", "m", defaults.Transcriber.Model, "transcription model id")
	generateCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path")
	generateCmd.Flags().BoolVar(&noAsync, "no-async", false, "disable concurrent window transcription")
	generateCmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the transcript cache")
	generateCmd.Flags().BoolVar(&showStats, "stats", false, "print a cue statistics table after generation")

	generateCmd.Flags().IntVar(&chunkSec, "chunk", defaults.Transcriber.ChunkSec, "audio window length in seconds")
	generateCmd.Flags().IntVar(&strideSec, "stride", defaults.Transcriber.StrideSec, "overlap between windows in seconds")
	generateCmd.Flags().IntVarP(&maxConcurrent, "max-concurrent", "j", defaults.Transcriber.MaxConcurrent, "max concurrent API uploads")
	generateCmd.Flags().IntVar(&maxRetries, "max-retries", defaults.Transcriber.MaxRetries, "max retries per window")
	generateCmd.Flags().IntVar(&rateLimit, "rate-limit", defaults.Transcriber.RateLimitPerMin, "API requests per minute")

	// Cue tuning flags.
	generateCmd.Flags().IntVar(&maxChars, "max-chars", defaults.Subtitles.MaxChars, "maximum cue text length in characters")
	generateCmd.Flags().Float64Var(&minDuration, "min-dur", defaults.Subtitles.MinDuration, "minimum cue duration in seconds")
	generateCmd.Flags().Float64Var(&maxDuration, "max-dur", defaults.Subtitles.MaxDuration, "maximum cue duration in seconds")
	generateCmd.Flags().Float64Var(&joinGap, "join-gap", defaults.Subtitles.JoinGap, "maximum silence gap for merging short cues, in seconds")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	absPath, err := filepath.Abs(inputPath)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", inputPath)
	}

	ext := strings.ToLower(filepath.Ext(absPath))
	audioExts := map[string]bool{
		".mp3": true, ".m4a": true, ".wav": true,
		".flac": true, ".ogg": true, ".aac": true,
	}
	if !audioExts[ext] && !ffmpeg.IsVideoExtension(ext) {
		return fmt.Errorf("unsupported file type: %s", ext)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Setup signal handling for graceful cancellation.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := worker.Options{
		InputPath:  absPath,
		OutputPath: output,
		Format:     format,
		NoAsync:    noAsync,
		NoCache:    noCache,
		ShowStats:  showStats,
		Config:     cfg,
	}

	if err := worker.Run(ctx, opts); err != nil {
		return err
	}

	if !quiet {
		slog.Info("done")
	}
	return nil
}

// loadConfig reads the config file and lets explicitly-set flags win over
// its values.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := configPath
	explicit := path != ""
	if !explicit {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path, explicit)
	if err != nil {
		return cfg, err
	}

	flagOverrides := map[string]func(){
		"model":          func() { cfg.Transcriber.Model = model },
		"chunk":          func() { cfg.Transcriber.ChunkSec = chunkSec },
		"stride":         func() { cfg.Transcriber.StrideSec = strideSec },
		"max-concurrent": func() { cfg.Transcriber.MaxConcurrent = maxConcurrent },
		"max-retries":    func() { cfg.Transcriber.MaxRetries = maxRetries },
		"rate-limit":     func() { cfg.Transcriber.RateLimitPerMin = rateLimit },
		"max-chars":      func() { cfg.Subtitles.MaxChars = maxChars },
		"min-dur":        func() { cfg.Subtitles.MinDuration = minDuration },
		"max-dur":        func() { cfg.Subtitles.MaxDuration = maxDuration },
		"join-gap":       func() { cfg.Subtitles.JoinGap = joinGap },
	}
	for name, apply := range flagOverrides {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	return cfg, cfg.Validate()
}
