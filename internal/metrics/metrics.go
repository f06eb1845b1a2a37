package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CommandsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gorilla_commands_executed_total",
		Help: "Total number of slash commands executed",
	}, []string{"command", "status"})

	VoiceSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gorilla_voice_sessions_total",
		Help: "Total number of voice session attempts",
	}, []string{"trigger", "status"})

	ActiveVoiceSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gorilla_voice_sessions_active",
		Help: "Number of voice sessions currently connected",
	})

	VoiceConnectDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gorilla_voice_connect_duration_seconds",
		Help:    "Time from join request until the voice connection is ready",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"status"})

	AudioPlayerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gorilla_audio_player_errors_total",
		Help: "Total number of audio player errors",
	}, []string{"resource"})

	TriggerMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gorilla_trigger_messages_total",
		Help: "Total number of trigger phrase messages seen",
	}, []string{"outcome"})
)
