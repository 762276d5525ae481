package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

const (
	roundPrefix = "round/"
	scorePrefix = "score/"
)

// BadgerConfig configures the embedded key-value backend.
type BadgerConfig struct {
	Path       string
	InMemory   bool
	SyncWrites bool
	Logger     *slog.Logger
}

func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{SyncWrites: true}
}

// badgerLogger routes badger's printf-style logging into slog.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

type BadgerStore struct {
	cfg BadgerConfig

	mu sync.RWMutex
	db *badger.DB
}

func NewBadgerStore(cfg BadgerConfig) *BadgerStore {
	return &BadgerStore{cfg: cfg}
}

func (s *BadgerStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}
	if !s.cfg.InMemory && s.cfg.Path == "" {
		return errors.New("badger path is required for persistent database")
	}

	var opts badger.Options
	if s.cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(s.cfg.Path, 0750); err != nil {
			return fmt.Errorf("create database directory %s: %w", s.cfg.Path, err)
		}
		opts = badger.DefaultOptions(s.cfg.Path)
	}
	opts = opts.WithSyncWrites(s.cfg.SyncWrites && !s.cfg.InMemory).WithNumVersionsToKeep(1)
	if s.cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: s.cfg.Logger.With("component", "badger")})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("open badger database: %w", err)
	}
	s.db = db
	return nil
}

func (s *BadgerStore) SaveRound(ctx context.Context, round RoundRecord) error {
	payload, err := EncodeRound(round)
	if err != nil {
		return err
	}
	return s.put(ctx, roundPrefix+round.ID, payload)
}

func (s *BadgerStore) GetRound(ctx context.Context, id string) (RoundRecord, bool, error) {
	payload, ok, err := s.get(ctx, roundPrefix+id)
	if err != nil || !ok {
		return RoundRecord{}, false, err
	}
	round, err := DecodeRound(payload)
	if err != nil {
		return RoundRecord{}, false, fmt.Errorf("decode round %s: %w", id, err)
	}
	return round, true, nil
}

func (s *BadgerStore) SaveScore(ctx context.Context, score ScoreRecord) error {
	payload, err := EncodeScore(score)
	if err != nil {
		return err
	}
	return s.put(ctx, scorePrefix+score.Responder, payload)
}

func (s *BadgerStore) GetScore(ctx context.Context, responder string) (ScoreRecord, bool, error) {
	payload, ok, err := s.get(ctx, scorePrefix+responder)
	if err != nil || !ok {
		return ScoreRecord{}, false, err
	}
	score, err := DecodeScore(payload)
	if err != nil {
		return ScoreRecord{}, false, fmt.Errorf("decode score %s: %w", responder, err)
	}
	return score, true, nil
}

// ListScores returns every score in key order, which is responder order.
func (s *BadgerStore) ListScores(ctx context.Context) ([]ScoreRecord, error) {
	db, err := s.getDB(ctx)
	if err != nil {
		return nil, err
	}

	var out []ScoreRecord
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(scorePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			payload, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			score, err := DecodeScore(payload)
			if err != nil {
				return fmt.Errorf("decode score %s: %w", it.Item().Key()[len(prefix):], err)
			}
			out = append(out, score)
		}
		return nil
	})
	return out, err
}

func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *BadgerStore) put(ctx context.Context, key string, value []byte) error {
	db, err := s.getDB(ctx)
	if err != nil {
		return err
	}
	return db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (s *BadgerStore) get(ctx context.Context, key string) ([]byte, bool, error) {
	db, err := s.getDB(ctx)
	if err != nil {
		return nil, false, err
	}
	var payload []byte
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (s *BadgerStore) getDB(ctx context.Context) (*badger.DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}
