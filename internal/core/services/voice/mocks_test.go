package voice

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"gorilla-voice-bot/internal/core/audio"
	"gorilla-voice-bot/internal/core/domain"
	"gorilla-voice-bot/internal/core/ports"
)

type mockConn struct {
	ready       atomic.Bool
	disconnects atomic.Int32
	send        chan []byte
}

func newMockConn(ready bool, buffer int) *mockConn {
	c := &mockConn{send: make(chan []byte, buffer)}
	c.ready.Store(ready)
	return c
}

func (c *mockConn) Ready() bool                  { return c.ready.Load() }
func (c *mockConn) Speaking(speaking bool) error { return nil }
func (c *mockConn) OpusSend() chan<- []byte      { return c.send }

func (c *mockConn) Disconnect() error {
	c.disconnects.Add(1)
	return nil
}

type mockDialer struct {
	mu       sync.Mutex
	calls    []string
	dialFunc func(guildID, channelID string) (ports.Connection, error)
}

func (d *mockDialer) Dial(guildID, channelID string) (ports.Connection, error) {
	d.mu.Lock()
	d.calls = append(d.calls, guildID+"/"+channelID)
	d.mu.Unlock()
	return d.dialFunc(guildID, channelID)
}

func (d *mockDialer) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

type mockLoader struct{}

func (mockLoader) Load(path string) (*audio.Resource, error) {
	return &audio.Resource{Title: "gorilla", Frames: [][]byte{{1}, {2}, {3}}}, nil
}

type mockRepo struct {
	mu    sync.Mutex
	plays []domain.Play
}

func (r *mockRepo) RecordPlay(ctx context.Context, play domain.Play) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plays = append(r.plays, play)
	return nil
}

func (r *mockRepo) RecentPlays(ctx context.Context, guildID string, limit int) ([]domain.Play, error) {
	return nil, nil
}

func (r *mockRepo) Close() {}

func (r *mockRepo) recorded() []domain.Play {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Play(nil), r.plays...)
}

func fastOptions() Options {
	return Options{
		ClipPath:        "gorilla.dca",
		ReadyTimeout:    100 * time.Millisecond,
		StartTimeout:    100 * time.Millisecond,
		DisconnectDelay: time.Hour,
		PollInterval:    5 * time.Millisecond,
	}
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
