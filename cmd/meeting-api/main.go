// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package main is the video meeting service API. It serves the HTTP and
// WebSocket API and answers meeting lookups over NATS.
package main

import (
	"context"
	_ "expvar"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/handlers"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/infrastructure/eventbus"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/pkg/concurrent"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/pkg/utils"
)

const gracefulShutdownSeconds = 25

func main() {
	loadDotEnv()
	env := parseEnv()
	flags := parseFlags(env.Port)

	logging.InitStructureLogConfig()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	gracefulCloseWG := sync.WaitGroup{}

	otelShutdown, err := utils.SetupOTelSDK(ctx)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up OpenTelemetry")
		return
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.With(logging.ErrKey, err).Error("error shutting down OpenTelemetry")
		}
	}()

	// Optional Heimdall JWT validation for user registration.
	jwtAuth, err := setupJWTAuth(env)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up JWT authentication")
		os.Exit(1)
	}

	// Initialize email service (independent of NATS)
	emailService, err := setupEmailService(env)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up email service")
		return
	}

	bus := eventbus.NewBus()
	defer bus.Close()

	var (
		natsConn *nats.Conn
		repos    *repositories
		relay    *messaging.EventRelay
		// lifecycle stays a nil interface in memory mode.
		lifecycle domain.MeetingLifecycleSender
	)
	if flags.Memory {
		slog.Warn("running with in-memory storage, state is lost on restart and not shared between replicas")
		repos = memoryKeyValueStores()
	} else {
		natsConn, err = setupNATS(ctx, env, &gracefulCloseWG, done)
		if err != nil {
			slog.With(logging.ErrKey, err).Error("error setting up NATS")
			return
		}

		// Get the key-value stores for the service.
		repos, err = getKeyValueStores(ctx, natsConn, env)
		if err != nil {
			slog.With(logging.ErrKey, err).Error("error getting key-value stores")
			return
		}

		lifecycle = messaging.NewMessageBuilder(natsConn)

		// Fan events out to the other replicas.
		relay = messaging.NewEventRelay(natsConn, bus)
		bus.SetRelay(relay)
		if err := relay.Start(natsConn); err != nil {
			slog.With(logging.ErrKey, err).Error("error starting the event relay")
			return
		}
	}

	// Initialize services
	serviceConfig := service.ServiceConfig{
		LFXEnvironment:    env.LFXEnvironment,
		AppOrigin:         env.LFXAppOrigin,
		ReapDelay:         env.ReapDelay,
		SessionTTL:        env.SessionTTL,
		InvitationWorkers: env.InvitationWorkers,
	}
	scheduler := concurrent.NewTimerScheduler()
	defer scheduler.Stop()

	reaper := service.NewIdleMeetingReaper(repos.Meeting, bus, lifecycle, scheduler, serviceConfig)
	meetingService := service.NewMeetingService(
		repos.Meeting,
		repos.User,
		bus,
		bus,
		lifecycle,
		emailService,
		reaper,
		serviceConfig,
	)
	subscriptionService := service.NewSubscriptionService(repos.Meeting, meetingService, bus)
	sessionService := service.NewSessionService(repos.Session, repos.User, serviceConfig)
	userService := service.NewUserService(repos.User, sessionService, serviceConfig)

	// Meetings left empty while no replica was running get a fresh idle check.
	if scheduled, err := reaper.Sweep(ctx); err != nil {
		slog.With(logging.ErrKey, err).Warn("error sweeping idle meetings")
	} else if scheduled > 0 {
		slog.With("count", scheduled).Info("scheduled idle meeting checks on startup")
	}

	svc := NewMeetingsAPI(
		meetingService,
		subscriptionService,
		sessionService,
		userService,
		jwtAuth,
		constants.NewJoinURLGenerator(env.LFXEnvironment, env.LFXAppOrigin).Origin(),
	)

	httpServer := setupHTTPServer(flags, svc, &gracefulCloseWG)

	if natsConn != nil {
		// Create NATS subscriptions for the service.
		meetingHandler := handlers.NewMeetingHandler(meetingService)
		if err := createNatsSubcriptions(ctx, meetingHandler, natsConn); err != nil {
			slog.With(logging.ErrKey, err).Error("error creating NATS subscriptions")
			return
		}
	}

	// This next line blocks until SIGINT or SIGTERM is received.
	<-done

	gracefulShutdown(httpServer, natsConn, relay, meetingService, &gracefulCloseWG, cancel)
}

// gracefulShutdown stops the HTTP server, waits for background invitations
// and drains the NATS connection.
func gracefulShutdown(httpServer *http.Server, natsConn *nats.Conn, relay *messaging.EventRelay, meetingService *service.MeetingService, gracefulCloseWG *sync.WaitGroup, cancel context.CancelFunc) {
	// Cancel the background context.
	cancel()

	go func() {
		// Run the HTTP shutdown in a goroutine so the NATS draining can also start.
		ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownSeconds*time.Second)
		defer cancel()

		slog.With("addr", httpServer.Addr).Info("shutting down http server")
		if err := httpServer.Shutdown(ctx); err != nil {
			slog.With(logging.ErrKey, err).Error("http shutdown error")
		}
		meetingService.Wait()
		// Decrement the wait group.
		gracefulCloseWG.Done()
	}()

	if relay != nil {
		if err := relay.Stop(); err != nil {
			slog.With(logging.ErrKey, err).Error("error stopping the event relay")
		}
	}

	// Drain the NATS connection, which will drain all subscriptions, then close the
	// connection when complete.
	if natsConn != nil && !natsConn.IsClosed() && !natsConn.IsDraining() {
		slog.Info("draining NATS connections")
		if err := natsConn.Drain(); err != nil {
			slog.With(logging.ErrKey, err).Error("error draining NATS connection")
			// Skip waiting for the NATS connection to close.
			gracefulCloseWG.Done()
		}
	}

	// Wait for the HTTP server and NATS connection to shut down.
	gracefulCloseWG.Wait()
}
