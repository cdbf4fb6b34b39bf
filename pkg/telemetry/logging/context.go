package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// Context keys for common log fields.
type contextKey string

const (
	// CycleIDKey is the context key for reconciliation cycle IDs.
	CycleIDKey contextKey = "cycle_id"

	// ComponentKey is the context key for the emitting component.
	ComponentKey contextKey = "component"

	// NetworkKey is the context key for the shared network name.
	NetworkKey contextKey = "network"
)

// WithCycleID adds a cycle ID to the context.
func WithCycleID(ctx context.Context, cycleID string) context.Context {
	return context.WithValue(ctx, CycleIDKey, cycleID)
}

// GetCycleID retrieves the cycle ID from the context.
func GetCycleID(ctx context.Context) string {
	if id, ok := ctx.Value(CycleIDKey).(string); ok {
		return id
	}
	return ""
}

// WithComponent adds a component name to the context.
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, ComponentKey, component)
}

// GetComponent retrieves the component name from the context.
func GetComponent(ctx context.Context) string {
	if component, ok := ctx.Value(ComponentKey).(string); ok {
		return component
	}
	return ""
}

// WithNetwork adds a network name to the context.
func WithNetwork(ctx context.Context, network string) context.Context {
	return context.WithValue(ctx, NetworkKey, network)
}

// GetNetwork retrieves the network name from the context.
func GetNetwork(ctx context.Context) string {
	if network, ok := ctx.Value(NetworkKey).(string); ok {
		return network
	}
	return ""
}

// extractContextFields returns the log attributes carried by ctx, including
// the trace and span IDs of a recording span.
func extractContextFields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}

	var fields []any
	if id := GetCycleID(ctx); id != "" {
		fields = append(fields, string(CycleIDKey), id)
	}
	if component := GetComponent(ctx); component != "" {
		fields = append(fields, string(ComponentKey), component)
	}
	if network := GetNetwork(ctx); network != "" {
		fields = append(fields, string(NetworkKey), network)
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			"trace_id", sc.TraceID().String(),
			"span_id", sc.SpanID().String(),
		)
	}

	return fields
}
