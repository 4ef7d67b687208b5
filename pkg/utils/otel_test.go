// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var otelEnvVars = []string{
	"OTEL_SERVICE_NAME",
	"OTEL_SERVICE_VERSION",
	"OTEL_EXPORTER_OTLP_PROTOCOL",
	"OTEL_EXPORTER_OTLP_ENDPOINT",
	"OTEL_EXPORTER_OTLP_INSECURE",
	"OTEL_TRACES_EXPORTER",
	"OTEL_TRACES_SAMPLE_RATIO",
	"OTEL_METRICS_EXPORTER",
	"OTEL_LOGS_EXPORTER",
}

// clearOTelEnv blanks every OTEL_* variable for the duration of the test.
func clearOTelEnv(t *testing.T) {
	t.Helper()
	for _, name := range otelEnvVars {
		t.Setenv(name, "")
	}
}

func TestOTelConfigFromEnv(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want OTelConfig
	}{
		{
			name: "video meeting service defaults",
			want: OTelConfig{
				ServiceName:       "lfx-v2-video-meeting-service",
				Protocol:          OTelProtocolGRPC,
				TracesExporter:    OTelExporterNone,
				TracesSampleRatio: 1.0,
				MetricsExporter:   OTelExporterNone,
				LogsExporter:      OTelExporterNone,
			},
		},
		{
			name: "collector over http",
			env: map[string]string{
				"OTEL_SERVICE_NAME":           "meeting-api-staging",
				"OTEL_SERVICE_VERSION":        "0.4.2",
				"OTEL_EXPORTER_OTLP_PROTOCOL": "http",
				"OTEL_EXPORTER_OTLP_ENDPOINT": "otel-collector:4318",
				"OTEL_EXPORTER_OTLP_INSECURE": "true",
				"OTEL_TRACES_EXPORTER":        "otlp",
				"OTEL_TRACES_SAMPLE_RATIO":    "0.25",
				"OTEL_METRICS_EXPORTER":       "otlp",
				"OTEL_LOGS_EXPORTER":          "otlp",
			},
			want: OTelConfig{
				ServiceName:       "meeting-api-staging",
				ServiceVersion:    "0.4.2",
				Protocol:          OTelProtocolHTTP,
				Endpoint:          "otel-collector:4318",
				Insecure:          true,
				TracesExporter:    OTelExporterOTLP,
				TracesSampleRatio: 0.25,
				MetricsExporter:   OTelExporterOTLP,
				LogsExporter:      OTelExporterOTLP,
			},
		},
		{
			name: "traces only",
			env:  map[string]string{"OTEL_TRACES_EXPORTER": "otlp"},
			want: OTelConfig{
				ServiceName:       "lfx-v2-video-meeting-service",
				Protocol:          OTelProtocolGRPC,
				TracesExporter:    OTelExporterOTLP,
				TracesSampleRatio: 1.0,
				MetricsExporter:   OTelExporterNone,
				LogsExporter:      OTelExporterNone,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearOTelEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, tt.want, OTelConfigFromEnv())
		})
	}
}

func TestOTelConfigFromEnv_TracesSampleRatio(t *testing.T) {
	tests := []struct {
		value string
		want  float64
	}{
		{"0", 0},
		{"0.1", 0.1},
		{"1", 1},
		{"-0.5", 1},
		{"1.5", 1},
		{"half", 1},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			clearOTelEnv(t)
			t.Setenv("OTEL_TRACES_SAMPLE_RATIO", tt.value)
			assert.Equal(t, tt.want, OTelConfigFromEnv().TracesSampleRatio)
		})
	}
}

func TestOTelConfigFromEnv_Insecure(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"TRUE", false},
		{"1", false},
		{"false", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			clearOTelEnv(t)
			t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", tt.value)
			assert.Equal(t, tt.want, OTelConfigFromEnv().Insecure)
		})
	}
}

func TestSetupOTelSDK_ExportersDisabled(t *testing.T) {
	clearOTelEnv(t)
	ctx := context.Background()

	shutdown, err := SetupOTelSDK(ctx)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(ctx))
	assert.NoError(t, shutdown(ctx), "shutdown can run twice during graceful stop")
}

func TestNewResource(t *testing.T) {
	tests := []struct {
		name        string
		cfg         OTelConfig
		wantVersion bool
	}{
		{"with version", OTelConfig{ServiceName: "lfx-v2-video-meeting-service", ServiceVersion: "1.0.0"}, true},
		{"without version", OTelConfig{ServiceName: "lfx-v2-video-meeting-service"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newResource(tt.cfg)
			require.NoError(t, err)

			attrs := map[string]string{}
			for _, kv := range res.Attributes() {
				attrs[string(kv.Key)] = kv.Value.Emit()
			}
			assert.Equal(t, tt.cfg.ServiceName, attrs["service.name"])
			version, ok := attrs["service.version"]
			assert.Equal(t, tt.wantVersion, ok)
			if tt.wantVersion {
				assert.Equal(t, tt.cfg.ServiceVersion, version)
			}
		})
	}
}

func TestNewPropagator(t *testing.T) {
	fields := newPropagator().Fields()
	for _, want := range []string{"traceparent", "tracestate", "baggage", "uber-trace-id"} {
		assert.Contains(t, fields, want)
	}
}
