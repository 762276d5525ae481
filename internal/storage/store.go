package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"automata/internal/session"
)

// Store persists finished rounds and per-responder reputation.
type Store interface {
	Init(ctx context.Context) error
	SaveRound(ctx context.Context, round RoundRecord) error
	GetRound(ctx context.Context, id string) (RoundRecord, bool, error)
	SaveScore(ctx context.Context, score ScoreRecord) error
	GetScore(ctx context.Context, responder string) (ScoreRecord, bool, error)
	ListScores(ctx context.Context) ([]ScoreRecord, error)
	Close() error
}

// VersionedRecord stamps every persisted payload so stale encodings are
// rejected on read.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

func currentVersion() VersionedRecord {
	return VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

type ResponseRecord struct {
	Executor  string  `json:"executor"`
	State     string  `json:"state"`
	Score     float64 `json:"score"`
	Digest    string  `json:"digest,omitempty"`
	Error     string  `json:"error,omitempty"`
	ElapsedMS int64   `json:"elapsed_ms"`
}

type RoundRecord struct {
	VersionedRecord
	ID           string           `json:"id"`
	Rule         string           `json:"rule"`
	Steps        int              `json:"steps"`
	Radius       int              `json:"radius"`
	Neighborhood string           `json:"neighborhood"`
	DType        string           `json:"dtype"`
	Shape        []int            `json:"shape"`
	Started      time.Time        `json:"started"`
	DurationMS   int64            `json:"duration_ms"`
	Responses    []ResponseRecord `json:"responses"`
}

// NewRoundRecord flattens a finished round into its persisted form.
func NewRoundRecord(r session.RoundResult) RoundRecord {
	rec := RoundRecord{
		VersionedRecord: currentVersion(),
		ID:              r.ID,
		Rule:            r.Params.Rule.String(),
		Steps:           r.Params.Steps,
		Radius:          r.Params.Radius,
		Neighborhood:    r.Params.Neighborhood.String(),
		Started:         r.Started.UTC(),
		DurationMS:      r.Duration.Milliseconds(),
		Responses:       make([]ResponseRecord, 0, len(r.Outcomes)),
	}
	if r.Initial != nil {
		rec.DType = r.Initial.DType().String()
		rec.Shape = r.Initial.Shape()
	}
	for _, o := range r.Outcomes {
		resp := ResponseRecord{
			Executor:  o.Executor,
			State:     o.State.String(),
			Score:     o.Score,
			Digest:    o.Digest,
			ElapsedMS: o.Elapsed.Milliseconds(),
		}
		if o.Err != nil {
			resp.Error = o.Err.Error()
		}
		rec.Responses = append(rec.Responses, resp)
	}
	return rec
}

// ScoreRecord is a responder's running reputation.
type ScoreRecord struct {
	VersionedRecord
	Responder string    `json:"responder"`
	Score     float64   `json:"score"`
	Last      float64   `json:"last"`
	Rounds    int       `json:"rounds"`
	Updated   time.Time `json:"updated"`
}

// NewStore builds the backend named by kind. path is the sqlite file or the
// badger directory; an empty badger path opens an in-memory database.
func NewStore(kind, path string, logger *slog.Logger) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(path), nil
	case "badger":
		cfg := DefaultBadgerConfig()
		cfg.Path = path
		cfg.InMemory = path == ""
		cfg.Logger = logger
		return NewBadgerStore(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}
