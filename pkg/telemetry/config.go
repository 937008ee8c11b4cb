// Package telemetry wires OpenTelemetry tracing into heaptrace.
package telemetry

import (
	"os"
	"strings"
)

// Config holds OpenTelemetry exporter and resource settings.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP collector address. An http:// scheme implies a
	// plaintext connection.
	Endpoint string

	// Protocol is "grpc" or "http/protobuf".
	Protocol string

	// Headers are sent with every export, e.g. Authorization.
	Headers map[string]string

	Insecure bool

	// Sampler is one of always_on, always_off, traceidratio,
	// parentbased_always_on, parentbased_always_off, parentbased_traceidratio.
	// Empty means always_on.
	Sampler    string
	SamplerArg string

	ResourceAttrs map[string]string
}

// DefaultConfig returns a disabled configuration with heaptrace defaults.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    "heaptrace",
		ServiceVersion: "unknown",
		Protocol:       "grpc",
		Headers:        map[string]string{},
		ResourceAttrs:  map[string]string{},
	}
}

// LoadFromEnv returns DefaultConfig with the standard OTEL_* variables applied.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	return cfg
}

// ApplyEnv overrides c with every OTEL_* variable that is set.
//
//	OTEL_ENABLED                 true/false
//	OTEL_SERVICE_NAME            service.name
//	OTEL_SERVICE_VERSION         service.version
//	OTEL_EXPORTER_OTLP_ENDPOINT  collector address
//	OTEL_EXPORTER_OTLP_PROTOCOL  grpc or http/protobuf
//	OTEL_EXPORTER_OTLP_HEADERS   key1=value1,key2=value2
//	OTEL_EXPORTER_OTLP_INSECURE  true/false
//	OTEL_TRACES_SAMPLER          sampler name
//	OTEL_TRACES_SAMPLER_ARG      sampler argument
//	OTEL_RESOURCE_ATTRIBUTES     key1=value1,key2=value2
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv("OTEL_ENABLED"); ok {
		c.Enabled = strings.EqualFold(v, "true")
	}
	setFromEnv(&c.ServiceName, "OTEL_SERVICE_NAME")
	setFromEnv(&c.ServiceVersion, "OTEL_SERVICE_VERSION")
	setFromEnv(&c.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setFromEnv(&c.Protocol, "OTEL_EXPORTER_OTLP_PROTOCOL")
	if v, ok := os.LookupEnv("OTEL_EXPORTER_OTLP_INSECURE"); ok {
		c.Insecure = strings.EqualFold(v, "true")
	}
	setFromEnv(&c.Sampler, "OTEL_TRACES_SAMPLER")
	setFromEnv(&c.SamplerArg, "OTEL_TRACES_SAMPLER_ARG")

	if c.Headers == nil {
		c.Headers = map[string]string{}
	}
	for k, v := range parseKeyValuePairs(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")) {
		c.Headers[k] = v
	}
	if c.ResourceAttrs == nil {
		c.ResourceAttrs = map[string]string{}
	}
	for k, v := range parseKeyValuePairs(os.Getenv("OTEL_RESOURCE_ATTRIBUTES")) {
		c.ResourceAttrs[k] = v
	}
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// parseKeyValuePairs parses "k1=v1,k2=v2". Values may contain '='; entries
// without a key are dropped.
func parseKeyValuePairs(s string) map[string]string {
	result := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		result[key] = strings.TrimSpace(value)
	}
	return result
}
