package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveRound(ctx context.Context, round RoundRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeRound(round)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO rounds (id, schema_version, codec_version, started_at, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			started_at = excluded.started_at,
			payload = excluded.payload
	`, round.ID, round.SchemaVersion, round.CodecVersion, round.Started.UnixNano(), payload)
	return err
}

func (s *SQLiteStore) GetRound(ctx context.Context, id string) (RoundRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return RoundRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM rounds WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RoundRecord{}, false, nil
		}
		return RoundRecord{}, false, err
	}

	round, err := DecodeRound(payload)
	if err != nil {
		return RoundRecord{}, false, fmt.Errorf("decode round %s: %w", id, err)
	}
	return round, true, nil
}

func (s *SQLiteStore) SaveScore(ctx context.Context, score ScoreRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeScore(score)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO scores (responder, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(responder) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, score.Responder, score.SchemaVersion, score.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetScore(ctx context.Context, responder string) (ScoreRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return ScoreRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM scores WHERE responder = ?`, responder).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ScoreRecord{}, false, nil
		}
		return ScoreRecord{}, false, err
	}

	score, err := DecodeScore(payload)
	if err != nil {
		return ScoreRecord{}, false, fmt.Errorf("decode score %s: %w", responder, err)
	}
	return score, true, nil
}

func (s *SQLiteStore) ListScores(ctx context.Context) ([]ScoreRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT responder, payload FROM scores ORDER BY responder`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScoreRecord
	for rows.Next() {
		var (
			responder string
			payload   []byte
		)
		if err := rows.Scan(&responder, &payload); err != nil {
			return nil, err
		}
		score, err := DecodeScore(payload)
		if err != nil {
			return nil, fmt.Errorf("decode score %s: %w", responder, err)
		}
		out = append(out, score)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS rounds (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			started_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS scores (
			responder TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
