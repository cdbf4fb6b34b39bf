package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Sampling strategies accepted by telemetry.tracing.sampler.
const (
	// SamplerAlways samples every cycle
	SamplerAlways = "always"

	// SamplerNever samples nothing
	SamplerNever = "never"

	// SamplerRatio samples a fraction of cycles by trace ID
	SamplerRatio = "ratio"
)

// createSampler returns a parent-based sampler for strategy. The decision is
// taken once per cycle span and inherited by every phase span under it.
func createSampler(strategy string, ratio float64) (sdktrace.Sampler, error) {
	var base sdktrace.Sampler

	switch strategy {
	case SamplerAlways, "":
		base = sdktrace.AlwaysSample()
	case SamplerNever:
		base = sdktrace.NeverSample()
	case SamplerRatio:
		if ratio < 0.0 || ratio > 1.0 {
			return nil, fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %f", ratio)
		}
		base = sdktrace.TraceIDRatioBased(ratio)
	default:
		return nil, fmt.Errorf("unknown sampler strategy: %s (valid: always, never, ratio)", strategy)
	}

	return sdktrace.ParentBased(base), nil
}
