package container

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// IdentityConfig controls how the sidecar finds itself.
type IdentityConfig struct {
	// SelfName overrides the hostname used to look up the sidecar container.
	SelfName string

	// Network selects one of the attached networks explicitly. Required to
	// avoid a guess when the container is attached to more than one.
	Network string
}

// IdentityResolver resolves and memoizes the sidecar's NetworkIdentity.
// Only successful resolutions are cached; a failed one is retried on the
// next call.
type IdentityResolver struct {
	inspector Inspector
	config    IdentityConfig
	hostname  func() (string, error)
	logger    *slog.Logger

	mu     sync.Mutex
	cached *NetworkIdentity
}

// NewIdentityResolver returns a resolver backed by inspector.
func NewIdentityResolver(inspector Inspector, cfg IdentityConfig, logger *slog.Logger) *IdentityResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityResolver{
		inspector: inspector,
		config:    cfg,
		hostname:  os.Hostname,
		logger:    logger.With("component", "container.identity"),
	}
}

// Resolve returns the cached identity or resolves it: hostname lookup,
// inspect, network selection.
func (r *IdentityResolver) Resolve(ctx context.Context) (NetworkIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil {
		return *r.cached, nil
	}

	lookup := r.config.SelfName
	if lookup == "" {
		host, err := r.hostname()
		if err != nil {
			return NetworkIdentity{}, fmt.Errorf("failed to resolve hostname: %w", err)
		}
		lookup = host
	}

	info, err := r.inspector.InspectContainer(ctx, lookup)
	if err != nil {
		return NetworkIdentity{}, err
	}

	network, err := r.selectNetwork(info)
	if err != nil {
		return NetworkIdentity{}, err
	}

	id := NetworkIdentity{Network: network, SelfName: info.Name}
	r.cached = &id

	r.logger.InfoContext(ctx, "resolved self identity",
		"container", id.SelfName,
		"network", id.Network,
	)

	return id, nil
}

func (r *IdentityResolver) selectNetwork(info *ContainerInfo) (string, error) {
	names := info.NetworkNames()

	if len(names) == 0 {
		return "", &MalformedResponseError{
			Operation: "inspect",
			Target:    info.Name,
			Message:   "container is not attached to any network",
		}
	}

	if r.config.Network != "" {
		if _, ok := info.Networks[r.config.Network]; !ok {
			return "", &UnconfiguredNetworkError{
				Network: r.config.Network,
				Reason:  fmt.Sprintf("container %q is not attached to it (attached: %v)", info.Name, names),
			}
		}
		return r.config.Network, nil
	}

	if len(names) > 1 {
		r.logger.Warn("container has more than one network, selecting the first; set runtime.network to choose explicitly",
			"container", info.Name,
			"networks", names,
			"selected", names[0],
		)
	}

	return names[0], nil
}

// Invalidate drops the cached identity so the next Resolve queries the
// runtime again.
func (r *IdentityResolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = nil
}

// Cached returns the cached identity, if any.
func (r *IdentityResolver) Cached() (NetworkIdentity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cached == nil {
		return NetworkIdentity{}, false
	}
	return *r.cached, true
}
