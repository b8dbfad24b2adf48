package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"voxsub/internal/asr"
	"voxsub/internal/config"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// transcribeConcurrent uploads windows with bounded parallelism and rate
// limiting, retrying each window with exponential backoff.
func transcribeConcurrent(ctx context.Context, client *asr.Client, wavPath, tmpDir string, windows []window, tc config.Transcriber) ([]windowResult, error) {
	slog.Info("starting concurrent transcription",
		"windows", len(windows),
		"max_concurrent", tc.MaxConcurrent,
		"rate_limit_rpm", tc.RateLimitPerMin)

	// Rate limiter: tokens per second = RPM / 60.
	limiter := rate.NewLimiter(rate.Limit(float64(tc.RateLimitPerMin)/60.0), 1)

	var (
		mu      sync.Mutex
		results []windowResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tc.MaxConcurrent)

	for _, w := range windows {
		w := w
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}

			slog.Info("starting window upload", "window", fmt.Sprintf("%d/%d", w.Index+1, len(windows)))

			var lastErr error
			for attempt := 0; attempt < tc.MaxRetries; attempt++ {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				got, err := transcribeWindow(gctx, client, wavPath, tmpDir, w, len(windows))
				if err == nil {
					mu.Lock()
					results = append(results, windowResult{Index: w.Index, Chunks: got})
					mu.Unlock()
					slog.Info("window completed", "window", fmt.Sprintf("%d/%d", w.Index+1, len(windows)))
					return nil
				}

				lastErr = err
				if attempt < tc.MaxRetries-1 {
					backoff := 1 << uint(attempt) // 1s, 2s, 4s...
					slog.Warn("window failed, retrying",
						"window", w.Index+1,
						"attempt", attempt+1,
						"backoff_sec", backoff,
						"err", err)

					timer := time.NewTimer(time.Duration(backoff) * time.Second)
					select {
					case <-gctx.Done():
						timer.Stop()
						return gctx.Err()
					case <-timer.C:
					}
				}
			}

			return fmt.Errorf("window %d/%d failed after %d retries: %w",
				w.Index+1, len(windows), tc.MaxRetries, lastErr)
		})
	}

	if err := g.Wait(); err != nil {
		// Some windows may have succeeded; finish the rest sequentially.
		mu.Lock()
		completed := len(results)
		mu.Unlock()

		if completed > 0 {
			slog.Warn("concurrent transcription partially failed, falling back to sequential",
				"completed", completed, "total", len(windows), "err", err)
			return finishSequential(ctx, client, wavPath, tmpDir, windows, results)
		}
		return nil, err
	}

	return results, nil
}
