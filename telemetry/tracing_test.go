package telemetry

import (
	"context"
	"testing"
)

func TestSetupTracing_NoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv("NATSEL_OTEL_ENDPOINT", "")
	t.Setenv("NATSEL_OTEL_ENABLED", "")

	shutdown, err := SetupTracing(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetupTracing_NoopWhenExplicitlyDisabled(t *testing.T) {
	t.Setenv("NATSEL_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("NATSEL_OTEL_ENABLED", "false")

	shutdown, err := SetupTracing(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetupTracing_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so nothing is exported.
	t.Setenv("NATSEL_OTEL_ENDPOINT", "http://192.0.2.1:4318")
	t.Setenv("NATSEL_OTEL_ENABLED", "")

	shutdown, err := SetupTracing(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, span := Tracer().Start(context.Background(), "probe")
	span.End()
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}
