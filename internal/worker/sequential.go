package worker

import (
	"context"
	"fmt"
	"log/slog"

	"voxsub/internal/asr"
)

// transcribeSequential uploads windows one at a time, in order.
func transcribeSequential(ctx context.Context, client *asr.Client, wavPath, tmpDir string, windows []window) ([]windowResult, error) {
	var results []windowResult

	for _, w := range windows {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		slog.Info("transcribing window", "window", fmt.Sprintf("%d/%d", w.Index+1, len(windows)))

		chunks, err := transcribeWindow(ctx, client, wavPath, tmpDir, w, len(windows))
		if err != nil {
			return nil, fmt.Errorf("window %d/%d failed: %w", w.Index+1, len(windows), err)
		}
		results = append(results, windowResult{Index: w.Index, Chunks: chunks})
	}

	return results, nil
}

// finishSequential completes a partially-failed concurrent run, keeping the
// windows that already succeeded.
func finishSequential(ctx context.Context, client *asr.Client, wavPath, tmpDir string, windows []window, completed []windowResult) ([]windowResult, error) {
	done := make(map[int]bool, len(completed))
	for _, r := range completed {
		done[r.Index] = true
	}

	for _, w := range windows {
		if done[w.Index] {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		slog.Info("sequential fallback transcribing window", "window", fmt.Sprintf("%d/%d", w.Index+1, len(windows)))

		chunks, err := transcribeWindow(ctx, client, wavPath, tmpDir, w, len(windows))
		if err != nil {
			return nil, fmt.Errorf("sequential fallback window %d/%d: %w", w.Index+1, len(windows), err)
		}
		completed = append(completed, windowResult{Index: w.Index, Chunks: chunks})
	}

	return completed, nil
}
