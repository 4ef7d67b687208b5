// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package metrics holds the prometheus collectors of the video meeting service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_meetings_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_meetings_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method"},
	)

	// Event bus metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_meetings_events_published_total",
			Help: "Total events published to the event bus",
		},
		[]string{"type"},
	)

	EventsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_meetings_events_delivered_total",
			Help: "Total events delivered to subscribers",
		},
		[]string{"type"},
	)

	EventsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_meetings_events_suppressed_total",
			Help: "Total events withheld from a subscriber by its filter",
		},
		[]string{"type"},
	)

	ActiveSubscriptions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "video_meetings_active_subscriptions",
			Help: "Live event subscriptions",
		},
		[]string{"kind"}, // "meeting" or "user"
	)

	EventsRelayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_meetings_events_relayed_total",
			Help: "Events exchanged with other replicas over NATS",
		},
		[]string{"direction"}, // "out" or "in"
	)

	// Meeting lifecycle metrics
	MeetingsHosted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_meetings_hosted_total",
			Help: "Total meetings hosted",
		},
	)

	MeetingsEnded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_meetings_ended_total",
			Help: "Total meetings ended",
		},
		[]string{"reason"}, // "host" or "idle"
	)

	ReapChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_meetings_reap_checks_total",
			Help: "Idle meeting checks by outcome",
		},
		[]string{"outcome"}, // "reaped", "skipped" or "error"
	)

	InvitationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_meetings_invitations_total",
			Help: "Meeting invitations by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	// Infrastructure metrics
	StoreConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_meetings_store_revision_conflicts_total",
			Help: "Compare-and-swap retries caused by concurrent meeting updates",
		},
	)
)
