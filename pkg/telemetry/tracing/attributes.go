package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys for reconciliation spans.
const (
	AttrCycleID   = attribute.Key("peersync.cycle_id")
	AttrOutcome   = attribute.Key("peersync.outcome")
	AttrState     = attribute.Key("peersync.state")
	AttrNetwork   = attribute.Key("peersync.network")
	AttrSelfName  = attribute.Key("peersync.self_name")
	AttrPeers     = attribute.Key("peersync.peers")
	AttrSkipped   = attribute.Key("peersync.skipped_peers")
	AttrErrorKind = attribute.Key("peersync.error_kind")
	AttrDigest    = attribute.Key("peersync.config_digest")
)

// CycleSummary is the subset of a cycle result recorded on its span.
type CycleSummary struct {
	Outcome   string
	State     string
	Network   string
	SelfName  string
	Peers     int
	Skipped   int
	ErrorKind string
	Digest    string
}

// Attributes converts s to span attributes, leaving out empty strings.
func (s CycleSummary) Attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		AttrOutcome.String(s.Outcome),
		AttrState.String(s.State),
		AttrPeers.Int(s.Peers),
	}
	if s.Skipped > 0 {
		attrs = append(attrs, AttrSkipped.Int(s.Skipped))
	}
	for _, kv := range []attribute.KeyValue{
		AttrNetwork.String(s.Network),
		AttrSelfName.String(s.SelfName),
		AttrErrorKind.String(s.ErrorKind),
		AttrDigest.String(s.Digest),
	} {
		if kv.Value.AsString() != "" {
			attrs = append(attrs, kv)
		}
	}
	return attrs
}

// EndCycleSpan annotates span with s, sets its status from err and ends it.
func EndCycleSpan(span trace.Span, s CycleSummary, err error) {
	span.SetAttributes(s.Attributes()...)
	SetError(span, err)
	SetStatus(span, err)
	span.End()
}
