package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const DefaultStartTimeout = 5 * time.Second

var (
	ErrStartTimeout = errors.New("playback did not start in time")
	ErrNoSubscriber = errors.New("player has no subscribed connection")
	ErrStoppedEarly = errors.New("playback stopped before it started")
)

type State int

const (
	StateIdle State = iota
	StateBuffering
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuffering:
		return "buffering"
	case StatePlaying:
		return "playing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Sink is where a player writes Opus frames; a voice connection satisfies it.
type Sink interface {
	Speaking(speaking bool) error
	OpusSend() chan<- []byte
}

type Loader interface {
	Load(path string) (*Resource, error)
}

// PlayerError carries the title of the resource that failed.
type PlayerError struct {
	Title string
	Err   error
}

func (e *PlayerError) Error() string {
	return fmt.Sprintf("audio player error on %q: %v", e.Title, e.Err)
}

func (e *PlayerError) Unwrap() error {
	return e.Err
}

// Player plays one resource at a time into its subscribed sink.
// State moves Idle -> Buffering -> Playing -> Idle.
type Player struct {
	loader    Loader
	startWait time.Duration
	onError   func(*PlayerError)

	mu     sync.Mutex
	state  State
	sink   Sink
	cancel context.CancelFunc
	run    uint64
}

type PlayerOption func(*Player)

func WithStartTimeout(d time.Duration) PlayerOption {
	return func(p *Player) { p.startWait = d }
}

func WithErrorHandler(fn func(*PlayerError)) PlayerOption {
	return func(p *Player) { p.onError = fn }
}

func NewPlayer(loader Loader, opts ...PlayerOption) *Player {
	p := &Player{
		loader:    loader,
		startWait: DefaultStartTimeout,
		onError:   func(*PlayerError) {},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Player) Subscribe(sink Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = sink
}

// Unsubscribe stops any playback and detaches the sink.
func (p *Player) Unsubscribe() {
	p.Stop()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = nil
}

func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// PlayOnce loads the clip at path, starts it and waits until the first frame
// has been handed to the sink. It fails with ErrStartTimeout if that does not
// happen within the start timeout.
func (p *Player) PlayOnce(ctx context.Context, path string) error {
	res, err := p.loader.Load(path)
	if err != nil {
		return fmt.Errorf("load clip: %w", err)
	}

	started, done, err := p.play(res)
	if err != nil {
		return err
	}

	timer := time.NewTimer(p.startWait)
	defer timer.Stop()

	select {
	case <-started:
		return nil
	case <-done:
		select {
		case <-started:
			return nil
		default:
			return ErrStoppedEarly
		}
	case <-timer.C:
		p.Stop()
		return fmt.Errorf("%w after %v", ErrStartTimeout, p.startWait)
	case <-ctx.Done():
		p.Stop()
		return ctx.Err()
	}
}

func (p *Player) play(res *Resource) (started, done chan struct{}, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sink == nil {
		return nil, nil, ErrNoSubscriber
	}
	if p.cancel != nil {
		p.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.run++
	p.state = StateBuffering

	started = make(chan struct{})
	done = make(chan struct{})
	go p.stream(ctx, p.run, res, p.sink, started, done)
	return started, done, nil
}

func (p *Player) stream(ctx context.Context, run uint64, res *Resource, sink Sink, started, done chan struct{}) {
	defer close(done)
	defer p.finish(run)

	if err := sink.Speaking(true); err != nil {
		p.onError(&PlayerError{Title: res.Title, Err: fmt.Errorf("start speaking: %w", err)})
		return
	}
	defer func() {
		err := sink.Speaking(false)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			// stopped playback usually means the connection is being torn down
			slog.Debug("Stop speaking failed after playback was stopped", "title", res.Title, "error", err)
		default:
			p.onError(&PlayerError{Title: res.Title, Err: fmt.Errorf("stop speaking: %w", err)})
		}
	}()

	out := sink.OpusSend()
	for i, frame := range res.Frames {
		select {
		case out <- frame:
		case <-ctx.Done():
			return
		}
		if i == 0 {
			p.setState(run, StatePlaying)
			close(started)
		}
	}
}

// setState ignores updates from a run that a newer PlayOnce has replaced.
func (p *Player) setState(run uint64, s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if run == p.run {
		p.state = s
	}
}

func (p *Player) finish(run uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if run != p.run {
		return
	}
	p.state = StateIdle
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
