package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorilla-voice-bot/internal/core/audio"
	"gorilla-voice-bot/internal/core/domain"
	"gorilla-voice-bot/internal/core/ports"
	"gorilla-voice-bot/internal/metrics"

	"golang.org/x/time/rate"
)

var (
	ErrConnectTimeout = errors.New("voice connection was not ready in time")
	ErrCooldown       = errors.New("voice trigger is cooling down for this guild")
	ErrNoConnection   = errors.New("voice dialer returned no connection")
)

const (
	DefaultReadyTimeout    = 30 * time.Second
	DefaultDisconnectDelay = 5 * time.Second
	defaultPollInterval    = 100 * time.Millisecond
	recordTimeout          = 5 * time.Second
)

// Request asks the manager to play the clip in one voice channel.
type Request struct {
	GuildID   string
	ChannelID string
	UserID    string
	Trigger   domain.Trigger
}

type Options struct {
	ClipPath        string
	ReadyTimeout    time.Duration
	StartTimeout    time.Duration
	DisconnectDelay time.Duration
	// Cooldown is the minimum gap between sessions in one guild; zero disables it.
	Cooldown      time.Duration
	PollInterval  time.Duration
	OnPlayerError func(*audio.PlayerError)
}

// Manager owns at most one voice session per guild. Requests for the same guild
// are serialized and a new request replaces the guild's current session.
type Manager struct {
	dialer ports.VoiceDialer
	clips  audio.Loader
	plays  ports.PlayRepository
	opts   Options

	mu        sync.Mutex
	locks     map[string]*guildLock
	sessions  map[string]*session
	limiters  map[string]*rate.Limiter
	lastPrune time.Time
}

// guildLock is dropped from the map once no request holds or waits on it.
type guildLock struct {
	mu   sync.Mutex
	refs int
}

type session struct {
	guildID   string
	channelID string
	conn      ports.Connection
	player    *audio.Player
	timer     *time.Timer
}

func NewManager(dialer ports.VoiceDialer, clips audio.Loader, plays ports.PlayRepository, opts Options) *Manager {
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = DefaultReadyTimeout
	}
	if opts.StartTimeout <= 0 {
		opts.StartTimeout = audio.DefaultStartTimeout
	}
	if opts.DisconnectDelay <= 0 {
		opts.DisconnectDelay = DefaultDisconnectDelay
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}

	return &Manager{
		dialer:   dialer,
		clips:    clips,
		plays:    plays,
		opts:     opts,
		locks:    make(map[string]*guildLock),
		sessions: make(map[string]*session),
		limiters: make(map[string]*rate.Limiter),
	}
}

// ConnectAndPlay joins the requested channel, plays the clip once and schedules
// the disconnect. The disconnect fires after DisconnectDelay whether or not the
// clip has finished. A dial abandoned on timeout keeps the guild locked until it
// returns, so a late connection is torn down before the next request dials.
func (m *Manager) ConnectAndPlay(ctx context.Context, req Request) (err error) {
	if !m.allow(req.GuildID) {
		metrics.VoiceSessions.WithLabelValues(string(req.Trigger), "throttled").Inc()
		return ErrCooldown
	}

	unlock := m.lockGuild(req.GuildID)
	var lateDial <-chan struct{}
	defer func() {
		if lateDial == nil {
			unlock()
			return
		}
		go func() {
			<-lateDial
			unlock()
		}()
	}()

	startedAt := time.Now()
	defer func() { m.record(req, startedAt, err) }()

	if prev := m.detach(req.GuildID); prev != nil {
		slog.Info("Replacing voice session", "guild_id", req.GuildID, "old_channel_id", prev.channelID, "channel_id", req.ChannelID)
		m.close(prev)
	}

	conn, lateDial, err := m.connect(ctx, req)
	if err != nil {
		return err
	}

	player := m.newPlayer()
	player.Subscribe(conn)

	if err := player.PlayOnce(ctx, m.opts.ClipPath); err != nil {
		player.Unsubscribe()
		destroy(conn, req.GuildID)
		return fmt.Errorf("play clip: %w", err)
	}

	s := &session{
		guildID:   req.GuildID,
		channelID: req.ChannelID,
		conn:      conn,
		player:    player,
	}

	m.mu.Lock()
	s.timer = time.AfterFunc(m.opts.DisconnectDelay, func() { m.expire(s) })
	m.sessions[req.GuildID] = s
	m.mu.Unlock()
	metrics.ActiveVoiceSessions.Inc()

	slog.Info("Voice session started", "guild_id", req.GuildID, "channel_id", req.ChannelID, "trigger", req.Trigger)
	return nil
}

// ActiveChannel reports the channel the guild's session is connected to.
func (m *Manager) ActiveChannel(guildID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[guildID]
	if !ok {
		return "", false
	}
	return s.channelID, true
}

// Close disconnects every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := make([]*session, 0, len(m.sessions))
	for guildID, s := range m.sessions {
		s.timer.Stop()
		delete(m.sessions, guildID)
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		m.close(s)
	}
}

// connect dials and waits for the connection to become ready. When the wait
// times out before the dial returns, the returned channel is closed once the
// late dial has finished and any connection it produced is destroyed.
func (m *Manager) connect(ctx context.Context, req Request) (ports.Connection, <-chan struct{}, error) {
	ctx, cancel := context.WithTimeout(ctx, m.opts.ReadyTimeout)
	defer cancel()
	start := time.Now()

	type dialResult struct {
		conn ports.Connection
		err  error
	}
	results := make(chan dialResult, 1)
	go func() {
		conn, err := m.dialer.Dial(req.GuildID, req.ChannelID)
		results <- dialResult{conn: conn, err: err}
	}()

	var conn ports.Connection
	select {
	case r := <-results:
		if r.err == nil && r.conn == nil {
			r.err = ErrNoConnection
		}
		if r.err != nil {
			if r.conn != nil {
				destroy(r.conn, req.GuildID)
			}
			observeConnect(start, "failure")
			return nil, nil, fmt.Errorf("join voice channel %s: %w", req.ChannelID, r.err)
		}
		conn = r.conn
	case <-ctx.Done():
		done := make(chan struct{})
		go func() {
			defer close(done)
			if r := <-results; r.conn != nil {
				slog.Warn("Destroying voice connection from abandoned dial", "guild_id", req.GuildID, "channel_id", req.ChannelID)
				destroy(r.conn, req.GuildID)
			}
		}()
		observeConnect(start, "timeout")
		return nil, done, m.waitError(ctx)
	}

	if err := waitReady(ctx, conn, m.opts.PollInterval); err != nil {
		destroy(conn, req.GuildID)
		observeConnect(start, "timeout")
		return nil, nil, m.waitError(ctx)
	}

	observeConnect(start, "success")
	return conn, nil, nil
}

func (m *Manager) waitError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %v", ErrConnectTimeout, m.opts.ReadyTimeout)
	}
	return ctx.Err()
}

func waitReady(ctx context.Context, conn ports.Connection, interval time.Duration) error {
	if conn.Ready() {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if conn.Ready() {
				return nil
			}
		}
	}
}

func (m *Manager) newPlayer() *audio.Player {
	opts := []audio.PlayerOption{audio.WithStartTimeout(m.opts.StartTimeout)}
	if m.opts.OnPlayerError != nil {
		opts = append(opts, audio.WithErrorHandler(m.opts.OnPlayerError))
	}
	return audio.NewPlayer(m.clips, opts...)
}

func (m *Manager) expire(s *session) {
	m.mu.Lock()
	current := m.sessions[s.guildID] == s
	if current {
		delete(m.sessions, s.guildID)
	}
	m.mu.Unlock()

	if !current {
		return
	}

	slog.Info("Voice session expired", "guild_id", s.guildID, "channel_id", s.channelID)
	m.close(s)
}

// detach removes the guild's session from the map and stops its timer.
func (m *Manager) detach(guildID string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[guildID]
	if !ok {
		return nil
	}
	s.timer.Stop()
	delete(m.sessions, guildID)
	return s
}

func (m *Manager) close(s *session) {
	s.player.Unsubscribe()
	destroy(s.conn, s.guildID)
	metrics.ActiveVoiceSessions.Dec()
}

// lockGuild serializes requests for one guild and returns the matching unlock.
func (m *Manager) lockGuild(guildID string) func() {
	m.mu.Lock()
	lock, ok := m.locks[guildID]
	if !ok {
		lock = &guildLock{}
		m.locks[guildID] = lock
	}
	lock.refs++
	m.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()

		m.mu.Lock()
		defer m.mu.Unlock()
		lock.refs--
		if lock.refs == 0 {
			delete(m.locks, guildID)
		}
	}
}

func (m *Manager) allow(guildID string) bool {
	if m.opts.Cooldown <= 0 {
		return true
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.pruneLimiters(now)

	limiter, ok := m.limiters[guildID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(m.opts.Cooldown), 1)
		m.limiters[guildID] = limiter
	}
	return limiter.AllowN(now, 1)
}

// pruneLimiters drops limiters that have been idle for a full cooldown. A full
// bucket behaves exactly like a fresh limiter. Runs at most once per cooldown.
func (m *Manager) pruneLimiters(now time.Time) {
	if now.Sub(m.lastPrune) < m.opts.Cooldown {
		return
	}
	m.lastPrune = now

	for guildID, limiter := range m.limiters {
		if limiter.TokensAt(now) >= 1 {
			delete(m.limiters, guildID)
		}
	}
}

func (m *Manager) record(req Request, startedAt time.Time, err error) {
	play := domain.Play{
		GuildID:   req.GuildID,
		ChannelID: req.ChannelID,
		UserID:    req.UserID,
		Trigger:   req.Trigger,
		Status:    domain.PlayStatusPlayed,
		StartedAt: startedAt,
	}
	status := "success"
	if err != nil {
		play.Status = domain.PlayStatusFailed
		play.Error = err.Error()
		status = "failure"
	}
	metrics.VoiceSessions.WithLabelValues(string(req.Trigger), status).Inc()

	if m.plays == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := m.plays.RecordPlay(ctx, play); err != nil {
		slog.Error("Failed to record play", "guild_id", req.GuildID, "error", err)
	}
}

func destroy(conn ports.Connection, guildID string) {
	if err := conn.Disconnect(); err != nil {
		slog.Warn("Failed to disconnect voice connection", "guild_id", guildID, "error", err)
	}
}

func observeConnect(start time.Time, status string) {
	metrics.VoiceConnectDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}
