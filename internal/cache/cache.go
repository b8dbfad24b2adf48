// Package cache persists transcript chunks in SQLite, keyed by the blake3
// hash of the extracted audio plus the model name, so repeated runs over
// the same source skip transcription entirely.
package cache

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"lukechampine.com/blake3"

	"voxsub/internal/pipeline"
)

const schema = `
create table if not exists transcripts (
	id integer primary key autoincrement,
	name text not null,
	blake3_hash text not null,
	model text not null,
	created_at text not null default (datetime('now')),
	unique (blake3_hash, model)
);
create table if not exists chunks (
	transcript_id integer not null references transcripts(id) on delete cascade,
	idx integer not null,
	start_ms integer not null,
	end_ms integer not null,
	text text not null,
	primary key (transcript_id, idx)
);
`

// HashFile returns the blake3-256 hex digest of a file's contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for hashing: %w", err)
	}
	defer f.Close()
	return hashReader(f)
}

func hashReader(r io.Reader) (string, error) {
	h := blake3.New(32, nil)
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("calculating blake3 hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Store is a SQLite-backed transcript cache.
type Store struct {
	db *sql.DB
}

// Open creates the cache database (and its parent directory) if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Chunks returns the cached transcript for (hash, model), or ok=false on a
// cache miss.
func (s *Store) Chunks(ctx context.Context, hash, model string) ([]pipeline.Chunk, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		"select id from transcripts where blake3_hash = $1 and model = $2",
		hash, model,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup transcript: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"select start_ms, end_ms, text from chunks where transcript_id = $1 order by idx",
		id,
	)
	if err != nil {
		return nil, false, fmt.Errorf("load chunks: %w", err)
	}
	defer rows.Close()

	var chunks []pipeline.Chunk
	for rows.Next() {
		var startMs, endMs int64
		var text string
		if err := rows.Scan(&startMs, &endMs, &text); err != nil {
			return nil, false, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, pipeline.Chunk{
			Start: msToSeconds(startMs),
			End:   msToSeconds(endMs),
			Text:  text,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate chunks: %w", err)
	}
	return chunks, true, nil
}

// SaveChunks stores a transcript under (hash, model), replacing any
// previous entry, inside one transaction.
func (s *Store) SaveChunks(ctx context.Context, name, hash, model string, chunks []pipeline.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save chunks: begin tx: %w", err)
	}

	if err := s.saveChunksTx(ctx, tx, name, hash, model, chunks); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback save chunks: %w", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save chunks: commit: %w", err)
	}
	return nil
}

func (s *Store) saveChunksTx(ctx context.Context, tx *sql.Tx, name, hash, model string, chunks []pipeline.Chunk) error {
	if _, err := tx.ExecContext(ctx,
		"delete from transcripts where blake3_hash = $1 and model = $2",
		hash, model,
	); err != nil {
		return fmt.Errorf("evict old transcript: %w", err)
	}

	var id int64
	err := tx.QueryRowContext(ctx,
		"insert into transcripts (name, blake3_hash, model) values ($1, $2, $3) returning id",
		name, hash, model,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("persist transcript: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"insert into chunks (transcript_id, idx, start_ms, end_ms, text) values ($1, $2, $3, $4, $5)")
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		if _, err := stmt.ExecContext(ctx, id, i, secondsToMs(c.Start), secondsToMs(c.End), c.Text); err != nil {
			return fmt.Errorf("persist chunk %d: %w", i, err)
		}
	}
	return nil
}

// Chunk times are stored as millisecond integers; decimal keeps the
// seconds↔ms conversion exact for values like 0.1 that binary floats
// cannot represent.
func secondsToMs(sec float64) int64 {
	return decimal.NewFromFloat(sec).Mul(decimal.NewFromInt(1000)).Round(0).IntPart()
}

func msToSeconds(ms int64) float64 {
	f, _ := decimal.NewFromInt(ms).Div(decimal.NewFromInt(1000)).Float64()
	return f
}
