package memory

import (
	"context"
	"sync"

	"gorilla-voice-bot/internal/core/domain"
)

const defaultCapacity = 100

// Store keeps the most recent plays per guild in memory. It is used when no
// database is configured; history is lost on restart.
type Store struct {
	mu       sync.RWMutex
	capacity int
	plays    map[string][]domain.Play
}

func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Store{
		capacity: capacity,
		plays:    make(map[string][]domain.Play),
	}
}

func (s *Store) RecordPlay(ctx context.Context, play domain.Play) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plays := append(s.plays[play.GuildID], play)
	if len(plays) > s.capacity {
		plays = plays[len(plays)-s.capacity:]
	}
	s.plays[play.GuildID] = plays
	return nil
}

// RecentPlays returns up to limit plays for the guild, newest first.
func (s *Store) RecentPlays(ctx context.Context, guildID string, limit int) ([]domain.Play, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plays := s.plays[guildID]
	if limit <= 0 || limit > len(plays) {
		limit = len(plays)
	}

	result := make([]domain.Play, 0, limit)
	for i := len(plays) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, plays[i])
	}
	return result, nil
}

func (s *Store) Close() {}
