package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"automata/internal/core"
	"automata/internal/session"
)

// DefaultAlpha weights the newest score in the moving average.
const DefaultAlpha = 0.1

// Ledger keeps an exponential moving average of each responder's scores on
// top of a Store. It satisfies session.Recorder and session.RoundSink.
type Ledger struct {
	store Store
	alpha float64
	now   func() time.Time

	mu sync.Mutex
}

func NewLedger(store Store, alpha float64) (*Ledger, error) {
	if alpha <= 0 || alpha > 1 {
		return nil, fmt.Errorf("%w: alpha %v outside (0,1]", core.ErrInvalidInput, alpha)
	}
	return &Ledger{store: store, alpha: alpha, now: time.Now}, nil
}

// Record folds score into the responder's average. The first score seeds
// the average directly.
func (l *Ledger) Record(ctx context.Context, responder string, score float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok, err := l.store.GetScore(ctx, responder)
	if err != nil {
		return err
	}
	if !ok {
		rec = ScoreRecord{VersionedRecord: currentVersion(), Responder: responder, Score: score}
	} else {
		rec.Score = l.alpha*score + (1-l.alpha)*rec.Score
	}
	rec.Last = score
	rec.Rounds++
	rec.Updated = l.now().UTC()
	return l.store.SaveScore(ctx, rec)
}

func (l *Ledger) SaveRound(ctx context.Context, r session.RoundResult) error {
	return l.store.SaveRound(ctx, NewRoundRecord(r))
}

// Standings returns every responder, best average first.
func (l *Ledger) Standings(ctx context.Context) ([]ScoreRecord, error) {
	scores, err := l.store.ListScores(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(scores, func(a, b ScoreRecord) int { return cmp.Compare(b.Score, a.Score) })
	return scores, nil
}

var (
	_ session.Recorder  = (*Ledger)(nil)
	_ session.RoundSink = (*Ledger)(nil)
)
