// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/infrastructure/auth"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/infrastructure/email"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/infrastructure/store"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/logging"
)

// repositories bundles the storage the services run on.
type repositories struct {
	Meeting *store.NatsMeetingRepository
	User    *store.NatsUserRepository
	Session *store.NatsSessionRepository
}

// setupJWTAuth configures JWT authentication for the service. It returns nil
// when no JWKS endpoint or mock principal is configured.
func setupJWTAuth(env environment) (*auth.JWTAuth, error) {
	if env.JWTConfig.JWKSURL == "" && env.JWTConfig.MockLocalPrincipal == "" {
		return nil, nil
	}
	return auth.NewJWTAuth(auth.JWTAuthConfig{
		JWKSURL:            env.JWTConfig.JWKSURL,
		Audience:           env.JWTConfig.Audience,
		MockLocalPrincipal: env.JWTConfig.MockLocalPrincipal,
	})
}

// setupEmailService returns the SMTP sender, or a no-op one when email is disabled.
func setupEmailService(env environment) (domain.EmailService, error) {
	if !env.EmailConfig.Enabled {
		slog.Info("email service disabled")
		return email.NewNoOpService(), nil
	}

	smtpService, err := email.NewSMTPService(email.SMTPConfig{
		Host:     env.EmailConfig.Host,
		Port:     env.EmailConfig.Port,
		From:     env.EmailConfig.From,
		Username: env.EmailConfig.Username,
		Password: env.EmailConfig.Password,
	})
	if err != nil {
		return nil, err
	}
	slog.With("host", env.EmailConfig.Host, "port", env.EmailConfig.Port).Info("email service enabled")
	return smtpService, nil
}

// setupNATS connects to NATS. The wait group is released when the connection
// is finally closed, and done is signalled if it closes unexpectedly.
func setupNATS(ctx context.Context, env environment, gracefulCloseWG *sync.WaitGroup, done chan os.Signal) (*nats.Conn, error) {
	gracefulCloseWG.Add(1)
	natsConn, err := nats.Connect(
		env.NatsURL,
		nats.Name("lfx-v2-video-meeting-service"),
		nats.Timeout(env.NatsTimeout),
		nats.DrainTimeout(gracefulShutdownSeconds*time.Second),
		nats.MaxReconnects(env.NatsMaxReconnect),
		nats.ReconnectWait(env.NatsReconnectWait),
		nats.ConnectHandler(func(_ *nats.Conn) {
			slog.InfoContext(ctx, "NATS connection established")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.With(logging.ErrKey, err).WarnContext(ctx, "NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.With("url", nc.ConnectedUrl()).InfoContext(ctx, "NATS reconnected")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				slog.With(logging.ErrKey, err, "subject", s.Subject, "queue", s.Queue).Error("async NATS error")
			} else {
				slog.With(logging.ErrKey, err).Error("async NATS error outside subscription")
			}
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if ctx.Err() != nil {
				// Expected during graceful shutdown.
				gracefulCloseWG.Done()
				return
			}
			slog.Error("NATS connection closed unexpectedly", logging.PriorityCritical())
			gracefulCloseWG.Done()
			done <- os.Interrupt
		}),
	)
	if err != nil {
		gracefulCloseWG.Done()
		return nil, fmt.Errorf("connect to NATS at %s: %w", env.NatsURL, err)
	}
	return natsConn, nil
}

// getKeyValueStores opens the JetStream KV buckets, creating missing ones.
func getKeyValueStores(ctx context.Context, natsConn *nats.Conn, env environment) (*repositories, error) {
	js, err := jetstream.New(natsConn)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	meetings, err := keyValue(ctx, js, jetstream.KeyValueConfig{Bucket: store.KVStoreNameMeetings, History: 1})
	if err != nil {
		return nil, err
	}
	users, err := keyValue(ctx, js, jetstream.KeyValueConfig{Bucket: store.KVStoreNameUsers, History: 1})
	if err != nil {
		return nil, err
	}
	sessions, err := keyValue(ctx, js, jetstream.KeyValueConfig{Bucket: store.KVStoreNameSessions, History: 1, TTL: env.SessionTTL})
	if err != nil {
		return nil, err
	}

	return &repositories{
		Meeting: store.NewNatsMeetingRepository(meetings),
		User:    store.NewNatsUserRepository(users),
		Session: store.NewNatsSessionRepository(sessions),
	}, nil
}

func keyValue(ctx context.Context, js jetstream.JetStream, config jetstream.KeyValueConfig) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, config.Bucket)
	if err == nil {
		return kv, nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, fmt.Errorf("open key-value store %s: %w", config.Bucket, err)
	}

	slog.With("bucket", config.Bucket).InfoContext(ctx, "creating key-value store")
	kv, err = js.CreateKeyValue(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create key-value store %s: %w", config.Bucket, err)
	}
	return kv, nil
}

// memoryKeyValueStores keeps state in process for single-replica development runs.
func memoryKeyValueStores() *repositories {
	return &repositories{
		Meeting: store.NewNatsMeetingRepository(store.NewMemoryKeyValue(store.KVStoreNameMeetings)),
		User:    store.NewNatsUserRepository(store.NewMemoryKeyValue(store.KVStoreNameUsers)),
		Session: store.NewNatsSessionRepository(store.NewMemoryKeyValue(store.KVStoreNameSessions)),
	}
}

// createNatsSubcriptions subscribes the request/reply handler to its subjects
// within the service's queue group.
func createNatsSubcriptions(ctx context.Context, handler domain.MessageHandler, natsConn *nats.Conn) error {
	subjects := []string{
		models.MeetingGetSubject,
		models.MeetingGetActiveCountSubject,
	}

	for _, subject := range subjects {
		_, err := natsConn.QueueSubscribe(subject, models.VideoMeetingsAPIQueue, func(msg *nats.Msg) {
			handler.HandleMessage(ctx, &messaging.NatsMsg{Msg: msg})
		})
		if err != nil {
			return fmt.Errorf("subscribe to %s: %w", subject, err)
		}
		slog.With("subject", subject, "queue", models.VideoMeetingsAPIQueue).DebugContext(ctx, "subscribed to NATS subject")
	}
	return nil
}
