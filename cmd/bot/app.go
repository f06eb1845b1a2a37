package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"gorilla-voice-bot/internal/adapters/discord"
	"gorilla-voice-bot/internal/adapters/discord/commands"
	"gorilla-voice-bot/internal/adapters/storage/memory"
	"gorilla-voice-bot/internal/adapters/storage/postgres"
	"gorilla-voice-bot/internal/config"
	"gorilla-voice-bot/internal/core/audio"
	"gorilla-voice-bot/internal/core/ports"
	"gorilla-voice-bot/internal/core/services"
	"gorilla-voice-bot/internal/core/services/voice"
	"gorilla-voice-bot/internal/metrics"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App owns every long-lived component; handlers receive what they need from it.
type App struct {
	config             *config.Config
	store              ports.PlayRepository
	discord            *discordgo.Session
	clips              *audio.Cache
	voice              *voice.Manager
	registry           *commands.Registry
	router             *commands.Router
	events             *discord.EventHandler
	metricsServer      *http.Server
	ctx                context.Context
	cancel             context.CancelFunc
	registeredCommands []*discordgo.ApplicationCommand
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := newPlayStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	session, err := discord.NewSession(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	appCtx, cancel := context.WithCancel(ctx)

	clips := audio.NewCache()
	manager := voice.NewManager(discord.NewVoiceDialer(session), clips, store, voice.Options{
		ClipPath:        cfg.ClipPath,
		ReadyTimeout:    cfg.ReadyTimeout,
		StartTimeout:    cfg.PlayStartTimeout,
		DisconnectDelay: cfg.DisconnectDelay,
		Cooldown:        cfg.VoiceCooldown,
		OnPlayerError:   onPlayerError,
	})

	botHandler := &commands.BotHandler{
		Voice:   manager,
		History: services.NewHistoryService(store, cfg.HistoryLimit),
		States:  session.State,
	}
	registry := commands.NewRegistry(commands.Definitions(botHandler))
	router := commands.NewRouter(registry)
	events := discord.NewEventHandler(appCtx, manager, clips, cfg.TriggerPhrase, cfg.ClipPath)

	events.Register(session)
	session.AddHandler(router.HandleFunc(appCtx))

	return &App{
		config:   cfg,
		store:    store,
		discord:  session,
		clips:    clips,
		voice:    manager,
		registry: registry,
		router:   router,
		events:   events,
		ctx:      appCtx,
		cancel:   cancel,
	}, nil
}

func newPlayStore(ctx context.Context, cfg *config.Config) (ports.PlayRepository, error) {
	if cfg.DatabaseURL == "" {
		slog.Info("DATABASE_URL is not set, keeping play history in memory")
		return memory.NewStore(0), nil
	}

	store, err := postgres.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to storage", "error", err)
		return nil, err
	}
	return store, nil
}

func (a *App) Run() error {
	a.startMetricsServer()

	if err := a.discord.Open(); err != nil {
		slog.Error("Failed to open discord session", "error", err)
		return err
	}

	if a.config.WatchClip {
		if err := audio.NewWatcher(a.clips, a.config.ClipPath).Start(a.ctx); err != nil {
			slog.Warn("Audio clip watcher disabled", "path", a.config.ClipPath, "error", err)
		}
	}

	a.registeredCommands = commands.RegisterCommands(a.discord, a.registry.ApplicationCommands(), a.discord.State.User.ID, a.config.DiscordGuildID)

	slog.Info("Gorilla bot is running", "trigger", a.config.TriggerPhrase, "clip", a.config.ClipPath)
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down...")

	var errs []error

	if a.cancel != nil {
		a.cancel()
	}

	if a.voice != nil {
		a.voice.Close()
	}

	if a.discord != nil {
		// global commands stay registered; guild commands are recreated on start
		if a.config.DiscordGuildID != "" && a.discord.State != nil && a.discord.State.User != nil {
			commands.CleanupCommands(a.discord, a.registeredCommands, a.discord.State.User.ID, a.config.DiscordGuildID)
		}
		if err := a.discord.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if a.store != nil {
		a.store.Close()
	}

	return errors.Join(errs...)
}

func (a *App) startMetricsServer() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              a.config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.metricsServer = srv

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "addr", srv.Addr, "error", err)
		}
	}()
}

func onPlayerError(err *audio.PlayerError) {
	slog.Error("Audio player error", "resource", err.Title, "error", err.Err)
	metrics.AudioPlayerErrors.WithLabelValues(err.Title).Inc()
}
