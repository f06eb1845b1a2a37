package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Token          string
	DiscordGuildID string
	DatabaseURL    string
	MetricsAddr    string

	TriggerPhrase string
	ClipPath      string
	WatchClip     bool

	PlayStartTimeout time.Duration
	ReadyTimeout     time.Duration
	DisconnectDelay  time.Duration
	VoiceCooldown    time.Duration

	HistoryLimit int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	token := readSecret("discord_token")
	if token == "" {
		token = os.Getenv("DISCORD_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is not set (via secret or env var)")
	}

	dbURL := readSecret("database_url")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	cfg := &Config{
		Token:            token,
		DiscordGuildID:   envString("DISCORD_GUILD_ID", ""),
		DatabaseURL:      dbURL,
		MetricsAddr:      envString("METRICS_ADDR", ":2112"),
		TriggerPhrase:    envString("TRIGGER_PHRASE", "!gorilla"),
		ClipPath:         envString("AUDIO_CLIP_PATH", "assets/gorilla.dca"),
		WatchClip:        envBool("AUDIO_WATCH", false),
		PlayStartTimeout: envDuration("AUDIO_START_TIMEOUT", 5*time.Second),
		ReadyTimeout:     envDuration("VOICE_READY_TIMEOUT", 30*time.Second),
		DisconnectDelay:  envDuration("VOICE_DISCONNECT_DELAY", 5*time.Second),
		VoiceCooldown:    envDuration("VOICE_COOLDOWN", 5*time.Second),
		HistoryLimit:     envInt("HISTORY_LIMIT", 10),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var secretsDir = "/run/secrets/"

func readSecret(name string) string {
	data, err := os.ReadFile(secretsDir + name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
