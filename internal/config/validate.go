package config

import (
	"errors"
	"fmt"
	"time"
)

// Validation constants define acceptable bounds for configuration values
const (
	// Token validation
	minTokenLength = 50 // Discord tokens are typically 50+ characters

	// Trigger phrase validation
	maxTriggerLength = 2000 // Discord message limit

	// Timeouts
	minPlayStartTimeout = 1 * time.Second
	maxPlayStartTimeout = 1 * time.Minute
	minReadyTimeout     = 1 * time.Second
	maxReadyTimeout     = 5 * time.Minute
	minDisconnectDelay  = 1 * time.Second
	maxDisconnectDelay  = 1 * time.Hour
	maxVoiceCooldown    = 1 * time.Hour

	// HistoryLimit validation
	minHistoryLimit = 1
	maxHistoryLimit = 25 // keeps /plays inside one message
)

// Validate checks if the configuration values are valid and within acceptable ranges.
// It returns all validation errors at once using errors.Join.
//
// Returns nil if all validations pass, otherwise returns a combined error
// containing all validation failures.
func (c *Config) Validate() error {
	var errs []error

	if err := c.validateToken(); err != nil {
		errs = append(errs, err)
	}

	if err := c.validateTrigger(); err != nil {
		errs = append(errs, err)
	}

	if c.ClipPath == "" {
		errs = append(errs, fmt.Errorf("AUDIO_CLIP_PATH cannot be empty"))
	}

	if c.MetricsAddr == "" {
		errs = append(errs, fmt.Errorf("METRICS_ADDR cannot be empty"))
	}

	if err := c.validateTimeouts(); err != nil {
		errs = append(errs, err)
	}

	if err := c.validateHistoryLimit(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  %w", errors.Join(errs...))
	}

	return nil
}

// validateToken ensures the Discord token is present and has valid length
func (c *Config) validateToken() error {
	if c.Token == "" {
		return fmt.Errorf("DISCORD_TOKEN is required but not set")
	}

	if len(c.Token) < minTokenLength {
		return fmt.Errorf(
			"DISCORD_TOKEN appears invalid (too short: %d chars, expected %d+)",
			len(c.Token), minTokenLength,
		)
	}

	return nil
}

func (c *Config) validateTrigger() error {
	if c.TriggerPhrase == "" {
		return fmt.Errorf("TRIGGER_PHRASE cannot be empty")
	}

	if len(c.TriggerPhrase) > maxTriggerLength {
		return fmt.Errorf(
			"TRIGGER_PHRASE must be at most %d characters (Discord limit), got %d",
			maxTriggerLength, len(c.TriggerPhrase),
		)
	}

	return nil
}

// validateTimeouts checks every voice and audio duration against its bounds
func (c *Config) validateTimeouts() error {
	var errs []error

	if err := validateDuration("AUDIO_START_TIMEOUT", c.PlayStartTimeout, minPlayStartTimeout, maxPlayStartTimeout); err != nil {
		errs = append(errs, err)
	}

	if err := validateDuration("VOICE_READY_TIMEOUT", c.ReadyTimeout, minReadyTimeout, maxReadyTimeout); err != nil {
		errs = append(errs, err)
	}

	if err := validateDuration("VOICE_DISCONNECT_DELAY", c.DisconnectDelay, minDisconnectDelay, maxDisconnectDelay); err != nil {
		errs = append(errs, err)
	}

	if err := validateDuration("VOICE_COOLDOWN", c.VoiceCooldown, 0, maxVoiceCooldown); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func (c *Config) validateHistoryLimit() error {
	if c.HistoryLimit < minHistoryLimit || c.HistoryLimit > maxHistoryLimit {
		return fmt.Errorf(
			"HISTORY_LIMIT must be between %d and %d, got %d",
			minHistoryLimit, maxHistoryLimit, c.HistoryLimit,
		)
	}

	return nil
}

func validateDuration(fieldName string, d, lower, upper time.Duration) error {
	if d < lower {
		return fmt.Errorf("%s must be at least %v, got %v", fieldName, lower, d)
	}

	if d > upper {
		return fmt.Errorf("%s must be at most %v, got %v", fieldName, upper, d)
	}

	return nil
}
