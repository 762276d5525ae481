package storage

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	rounds      map[string]RoundRecord
	scores      map[string]ScoreRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.rounds = make(map[string]RoundRecord)
	s.scores = make(map[string]ScoreRecord)
	return nil
}

func (s *MemoryStore) SaveRound(_ context.Context, round RoundRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	round.Shape = slices.Clone(round.Shape)
	round.Responses = slices.Clone(round.Responses)
	s.rounds[round.ID] = round
	return nil
}

func (s *MemoryStore) GetRound(_ context.Context, id string) (RoundRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	round, ok := s.rounds[id]
	return round, ok, nil
}

func (s *MemoryStore) SaveScore(_ context.Context, score ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.scores[score.Responder] = score
	return nil
}

func (s *MemoryStore) GetScore(_ context.Context, responder string) (ScoreRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	score, ok := s.scores[responder]
	return score, ok, nil
}

func (s *MemoryStore) ListScores(_ context.Context) ([]ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ScoreRecord, 0, len(s.scores))
	for _, score := range s.scores {
		out = append(out, score)
	}
	slices.SortFunc(out, func(a, b ScoreRecord) int { return strings.Compare(a.Responder, b.Responder) })
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

var errNotInitialized = errors.New("store is not initialized")
