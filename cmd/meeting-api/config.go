// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/logging"
)

// flags are the command line flags for the video meeting service.
type flags struct {
	Debug  bool
	Port   string
	Bind   string
	Memory bool
}

// environment are the environment variables for the video meeting service.
type environment struct {
	Port              string
	LFXEnvironment    string
	LFXAppOrigin      string
	NatsURL           string
	NatsTimeout       time.Duration
	NatsMaxReconnect  int
	NatsReconnectWait time.Duration
	ReapDelay         time.Duration
	SessionTTL        time.Duration
	InvitationWorkers int
	EmailConfig       emailConfig
	JWTConfig         jwtConfig
}

// emailConfig holds the SMTP settings used for invitations.
type emailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// jwtConfig holds the Heimdall token settings.
type jwtConfig struct {
	JWKSURL            string
	Audience           string
	MockLocalPrincipal string
}

// loadDotEnv loads a .env file when one exists. Variables already present in
// the environment win.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.With(logging.ErrKey, err).Warn("error loading .env file")
	}
}

// parseFlags parses command line flags for the video meeting service
func parseFlags(defaultPort string) flags {
	var debug = flag.Bool("d", false, "enable debug logging")
	var port = flag.String("p", defaultPort, "listen port")
	var bind = flag.String("bind", "*", "interface to bind on")
	var memory = flag.Bool("memory", false, "keep state in memory instead of NATS (single replica, development only)")

	flag.Usage = func() {
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	// Based on the debug flag, set the log level environment variable used by [logging.InitStructureLogConfig]
	if *debug {
		err := os.Setenv("LOG_LEVEL", "debug")
		if err != nil {
			slog.With(logging.ErrKey, err).Error("error setting log level")
			os.Exit(1)
		}
	}

	return flags{
		Debug:  *debug,
		Port:   *port,
		Bind:   *bind,
		Memory: *memory,
	}
}

// parseEnv parses environment variables for the video meeting service
func parseEnv() environment {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	var lfxEnvironment string
	switch os.Getenv("LFX_ENVIRONMENT") {
	case "dev", "development":
		lfxEnvironment = "dev"
	case "staging", "stg", "stage":
		lfxEnvironment = "staging"
	case "prod", "production":
		lfxEnvironment = "prod"
	default:
		lfxEnvironment = "prod" // Default to production
	}

	lfxAppOrigin := os.Getenv("LFX_APP_ORIGIN")
	if lfxAppOrigin != "" {
		if _, err := url.Parse(lfxAppOrigin); err != nil {
			slog.With(logging.ErrKey, err, "url", lfxAppOrigin).Error("invalid LFX_APP_ORIGIN provided, using the environment default")
			lfxAppOrigin = ""
		}
	}

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	return environment{
		Port:              port,
		LFXEnvironment:    lfxEnvironment,
		LFXAppOrigin:      lfxAppOrigin,
		NatsURL:           natsURL,
		NatsTimeout:       envDuration("NATS_TIMEOUT", 10*time.Second),
		NatsMaxReconnect:  envInt("NATS_MAX_RECONNECT", 3),
		NatsReconnectWait: envDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		ReapDelay:         envDuration("MEETING_REAP_DELAY", 30*time.Second),
		SessionTTL:        time.Duration(envInt("SESSION_TTL_DAYS", 30)) * 24 * time.Hour,
		InvitationWorkers: envInt("INVITATION_WORKERS", 4),
		EmailConfig:       parseEmailConfig(),
		JWTConfig: jwtConfig{
			JWKSURL:            os.Getenv("JWKS_URL"),
			Audience:           os.Getenv("JWT_AUDIENCE"),
			MockLocalPrincipal: os.Getenv("JWT_AUTH_DISABLED_MOCK_LOCAL_PRINCIPAL"),
		},
	}
}

// parseEmailConfig parses SMTP configuration from environment variables
func parseEmailConfig() emailConfig {
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "no-reply@lfx.dev"
	}

	host := os.Getenv("SMTP_HOST")
	if host == "" {
		host = "localhost"
	}

	return emailConfig{
		Enabled:  os.Getenv("EMAIL_ENABLED") == "true",
		Host:     host,
		Port:     envInt("SMTP_PORT", 1025),
		From:     from,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		slog.With(logging.ErrKey, err, "key", key).Warn("invalid integer, using default")
		return fallback
	}
	return value
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		slog.With(logging.ErrKey, err, "key", key).Warn("invalid duration, using default")
		return fallback
	}
	return value
}
