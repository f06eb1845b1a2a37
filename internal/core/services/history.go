package services

import (
	"context"
	"fmt"

	"gorilla-voice-bot/internal/core/domain"
	"gorilla-voice-bot/internal/core/ports"
)

type HistoryService struct {
	repo  ports.PlayRepository
	limit int
}

func NewHistoryService(repo ports.PlayRepository, limit int) *HistoryService {
	return &HistoryService{repo: repo, limit: limit}
}

// RecentPlays returns the guild's latest plays, newest first.
func (s *HistoryService) RecentPlays(ctx context.Context, guildID string) ([]domain.Play, error) {
	plays, err := s.repo.RecentPlays(ctx, guildID, s.limit)
	if err != nil {
		return nil, fmt.Errorf("recent plays for guild %s: %w", guildID, err)
	}
	return plays, nil
}
