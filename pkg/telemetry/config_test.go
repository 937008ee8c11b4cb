package telemetry

import (
	"testing"
)

var otelEnvKeys = []string{
	"OTEL_ENABLED",
	"OTEL_SERVICE_NAME",
	"OTEL_SERVICE_VERSION",
	"OTEL_EXPORTER_OTLP_ENDPOINT",
	"OTEL_EXPORTER_OTLP_PROTOCOL",
	"OTEL_EXPORTER_OTLP_HEADERS",
	"OTEL_EXPORTER_OTLP_INSECURE",
	"OTEL_TRACES_SAMPLER",
	"OTEL_TRACES_SAMPLER_ARG",
	"OTEL_RESOURCE_ATTRIBUTES",
}

// clearOTELEnv blanks every OTEL_* variable for the duration of the test.
func clearOTELEnv(t *testing.T) {
	t.Helper()
	for _, k := range otelEnvKeys {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearOTELEnv(t)

	cfg := LoadFromEnv()

	if cfg.Enabled {
		t.Error("Expected Enabled to be false by default")
	}
	if cfg.ServiceName != "heaptrace" {
		t.Errorf("Expected ServiceName 'heaptrace', got '%s'", cfg.ServiceName)
	}
	if cfg.ServiceVersion != "unknown" {
		t.Errorf("Expected ServiceVersion 'unknown', got '%s'", cfg.ServiceVersion)
	}
	if cfg.Protocol != "grpc" {
		t.Errorf("Expected Protocol 'grpc', got '%s'", cfg.Protocol)
	}
	if len(cfg.Headers) != 0 || len(cfg.ResourceAttrs) != 0 {
		t.Errorf("Expected no headers or attributes, got %v %v", cfg.Headers, cfg.ResourceAttrs)
	}
}

func TestLoadFromEnv_Values(t *testing.T) {
	clearOTELEnv(t)
	t.Setenv("OTEL_ENABLED", "TRUE")
	t.Setenv("OTEL_SERVICE_NAME", "heaptrace-batch")
	t.Setenv("OTEL_SERVICE_VERSION", "1.2.0")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "https://collector.example.com:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "http/protobuf")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "Authorization=Bearer token123,X-Custom=value")
	t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment=ci")

	cfg := LoadFromEnv()

	if !cfg.Enabled {
		t.Error("Expected Enabled to be true for 'TRUE'")
	}
	if cfg.ServiceName != "heaptrace-batch" {
		t.Errorf("Expected ServiceName 'heaptrace-batch', got '%s'", cfg.ServiceName)
	}
	if cfg.ServiceVersion != "1.2.0" {
		t.Errorf("Expected ServiceVersion '1.2.0', got '%s'", cfg.ServiceVersion)
	}
	if cfg.Endpoint != "https://collector.example.com:4317" {
		t.Errorf("unexpected Endpoint '%s'", cfg.Endpoint)
	}
	if cfg.Protocol != "http/protobuf" {
		t.Errorf("Expected Protocol 'http/protobuf', got '%s'", cfg.Protocol)
	}
	if !cfg.Insecure {
		t.Error("Expected Insecure to be true")
	}
	if cfg.Headers["Authorization"] != "Bearer token123" || cfg.Headers["X-Custom"] != "value" {
		t.Errorf("unexpected headers %v", cfg.Headers)
	}
	if cfg.ResourceAttrs["deployment.environment"] != "ci" {
		t.Errorf("unexpected resource attributes %v", cfg.ResourceAttrs)
	}
}

func TestApplyEnv_KeepsUnsetFields(t *testing.T) {
	clearOTELEnv(t)
	t.Setenv("OTEL_TRACES_SAMPLER", "traceidratio")

	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Endpoint = "localhost:4317"
	cfg.ApplyEnv()

	if !cfg.Enabled {
		t.Error("empty OTEL_ENABLED must not disable a configured value")
	}
	if cfg.Endpoint != "localhost:4317" {
		t.Errorf("Endpoint overwritten: '%s'", cfg.Endpoint)
	}
	if cfg.Sampler != "traceidratio" {
		t.Errorf("Expected Sampler 'traceidratio', got '%s'", cfg.Sampler)
	}
}

func TestParseKeyValuePairs(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"single_pair", "key=value", map[string]string{"key": "value"}},
		{"multiple_pairs", "key1=value1,key2=value2", map[string]string{"key1": "value1", "key2": "value2"}},
		{"with_spaces", " key1 = value1 , key2 = value2 ", map[string]string{"key1": "value1", "key2": "value2"}},
		{"value_with_equals", "Authorization=Bearer token=abc", map[string]string{"Authorization": "Bearer token=abc"}},
		{"empty_value", "key=", map[string]string{"key": ""}},
		{"invalid_no_equals", "invalid", map[string]string{}},
		{"empty_key", "=value", map[string]string{}},
		{"mixed_valid_invalid", "valid=value,invalid,another=test", map[string]string{"valid": "value", "another": "test"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseKeyValuePairs(tt.input)

			if len(result) != len(tt.expected) {
				t.Errorf("Expected %d pairs, got %d", len(tt.expected), len(result))
			}
			for k, v := range tt.expected {
				if result[k] != v {
					t.Errorf("Expected %s='%s', got '%s'", k, v, result[k])
				}
			}
		})
	}
}
