package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RecordKind tells checkpoint saves from level results.
type RecordKind uint8

const (
	KindCheckpoint RecordKind = iota
	KindLevel
)

// Record is one queued progress save.
type Record struct {
	Kind         RecordKind
	Session      uuid.UUID
	Player       uint64
	LevelID      uint32
	CheckpointID uint32
	Status       string
	Attempts     uint16
	Elapsed      float32
	Frame        uint64
	At           time.Time
}

// Store persists progress batches.
type Store interface {
	SaveBatch(ctx context.Context, records []Record) error
}

// ProgressRepo is the Postgres Store.
type ProgressRepo struct {
	db *DB
}

func NewProgressRepo(db *DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

// SaveBatch writes records in a single transaction. Either all land or
// none do.
func (r *ProgressRepo) SaveBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("progress begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, rec := range records {
		switch rec.Kind {
		case KindCheckpoint:
			batch.Queue(
				`INSERT INTO checkpoint_saves (session_id, player, level_id, checkpoint_id, frame, saved_at)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				rec.Session, int64(rec.Player), int32(rec.LevelID), int32(rec.CheckpointID), int64(rec.Frame), rec.At,
			)
		case KindLevel:
			batch.Queue(
				`INSERT INTO level_results (session_id, level_id, status, attempts, elapsed, frame, saved_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				rec.Session, int32(rec.LevelID), rec.Status, int16(rec.Attempts), rec.Elapsed, int64(rec.Frame), rec.At,
			)
		}
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("progress insert: %w", err)
	}
	return tx.Commit(ctx)
}

// BestTime returns the fastest completion of levelID across sessions, or 0.
// Bootstrap uses it to seed each level's best time.
func (r *ProgressRepo) BestTime(ctx context.Context, levelID uint32) (float32, error) {
	var best *float32
	err := r.db.Pool.QueryRow(ctx,
		`SELECT MIN(elapsed) FROM level_results WHERE level_id = $1 AND status = 'completed' AND elapsed > 0`,
		int32(levelID),
	).Scan(&best)
	if err != nil {
		return 0, fmt.Errorf("best time: %w", err)
	}
	if best == nil {
		return 0, nil
	}
	return *best, nil
}
