package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"voxsub/internal/pipeline"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "transcripts.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_MissThenHit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, ok, err := s.Chunks(ctx, "deadbeef", "voxtral-mini-latest"); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	in := []pipeline.Chunk{
		{Start: 0, End: 3.1, Text: "Hello world."},
		{Start: 3.1, End: 6.25, Text: "Second chunk."},
	}
	if err := s.SaveChunks(ctx, "clip.wav", "deadbeef", "voxtral-mini-latest", in); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.Chunks(ctx, "deadbeef", "voxtral-mini-latest")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2", len(got))
	}
	if got[0].End != 3.1 || got[1].Text != "Second chunk." {
		t.Errorf("round trip mismatch: %v", got)
	}
}

func TestStore_ModelIsolation(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	in := []pipeline.Chunk{{Start: 0, End: 1, Text: "a"}}
	if err := s.SaveChunks(ctx, "clip.wav", "cafe", "model-a", in); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Chunks(ctx, "cafe", "model-b"); ok {
		t.Error("cache hit across models")
	}
}

func TestStore_Replace(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SaveChunks(ctx, "clip.wav", "beef", "m", []pipeline.Chunk{{Start: 0, End: 1, Text: "old"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveChunks(ctx, "clip.wav", "beef", "m", []pipeline.Chunk{{Start: 0, End: 2, Text: "new"}}); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Chunks(ctx, "beef", "m")
	if err != nil || !ok {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Text != "new" {
		t.Errorf("got %v, want the replacement entry", got)
	}
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.bin")
	if err := os.WriteFile(path, []byte("same content"), 0o644); err != nil {
		t.Fatal(err)
	}
	h1, err := HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Error("hash not deterministic")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(h1))
	}
}

func TestTimeConversion(t *testing.T) {
	tests := []struct {
		sec float64
		ms  int64
	}{
		{0, 0},
		{0.1, 100},
		{3.1, 3100},
		{61.999, 61999},
	}
	for _, tt := range tests {
		if got := secondsToMs(tt.sec); got != tt.ms {
			t.Errorf("secondsToMs(%f) = %d, want %d", tt.sec, got, tt.ms)
		}
		if got := msToSeconds(tt.ms); got != tt.sec {
			t.Errorf("msToSeconds(%d) = %f, want %f", tt.ms, got, tt.sec)
		}
	}
}
