package generator

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"mercator-hq/peersync/pkg/container"
)

// Default ports used by the server block template.
const (
	DefaultPort       = 80
	DefaultListenPort = 80
)

// PeerLister lists the container names attached to a network.
// container.Inspector satisfies it.
type PeerLister interface {
	ListPeerNames(ctx context.Context, network string) ([]string, error)
}

// Options configures a Generator.
type Options struct {
	// Port is the upstream port each peer is proxied to.
	Port int

	// ListenPort is the port every server block listens on.
	ListenPort int

	// DefaultNetwork is the runtime's shared network, refused for discovery.
	DefaultNetwork string

	// Validation selects the hostname validation mode.
	Validation ValidationMode
}

// Plan is the outcome of generation: the peers that were rendered, the ones
// dropped by hostname validation, and the document.
type Plan struct {
	Network  string
	SelfName string
	Peers    []string
	Skipped  []string
	Document string
}

// Generator turns the peer set of a network into a proxy config document.
type Generator struct {
	lister PeerLister
	opts   Options
	logger *slog.Logger

	// mu guards opts.Validation, which a config reload may change.
	mu sync.RWMutex
}

// New returns a Generator. Zero-valued options fall back to their defaults.
func New(lister PeerLister, opts Options, logger *slog.Logger) *Generator {
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.ListenPort == 0 {
		opts.ListenPort = DefaultListenPort
	}
	if opts.DefaultNetwork == "" {
		opts.DefaultNetwork = container.DefaultNetwork
	}
	if opts.Validation == "" {
		opts.Validation = ValidationSkip
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		lister: lister,
		opts:   opts,
		logger: logger.With("component", "generator"),
	}
}

// SetValidation changes the hostname validation mode for subsequent calls.
func (g *Generator) SetValidation(mode ValidationMode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.opts.Validation = mode
}

// Validation returns the current hostname validation mode.
func (g *Generator) Validation() ValidationMode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.opts.Validation
}

// Plan discovers the peers of network, excludes selfName, and renders the
// document. Discovery on the default network fails with
// *container.UnconfiguredNetworkError before the runtime is queried.
func (g *Generator) Plan(ctx context.Context, network, selfName string) (*Plan, error) {
	if network == g.opts.DefaultNetwork {
		return nil, container.NewDefaultNetworkError(network)
	}

	names, err := g.lister.ListPeerNames(ctx, network)
	if err != nil {
		return nil, err
	}

	peers, sawSelf := normalize(names, selfName)
	if !sawSelf {
		g.logger.WarnContext(ctx, "self container not found in peer list",
			"self", selfName,
			"network", network,
		)
	}

	var skipped []string
	if mode := g.Validation(); mode != ValidationOff {
		valid := make([]string, 0, len(peers))
		for _, p := range peers {
			if ValidHostname(p) {
				valid = append(valid, p)
			} else {
				skipped = append(skipped, p)
			}
		}
		if len(skipped) > 0 {
			if mode == ValidationReject {
				return nil, &InvalidPeerNameError{Names: skipped}
			}
			g.logger.WarnContext(ctx, "skipping peers with invalid hostnames", "peers", skipped)
		}
		peers = valid
	}

	g.logger.InfoContext(ctx, "found peers", "network", network, "peers", peers)

	return &Plan{
		Network:  network,
		SelfName: selfName,
		Peers:    peers,
		Skipped:  skipped,
		Document: Render(peers, g.opts.ListenPort, g.opts.Port),
	}, nil
}

// GenerateDocument is Plan without the bookkeeping.
func (g *Generator) GenerateDocument(ctx context.Context, network, selfName string) (string, error) {
	plan, err := g.Plan(ctx, network, selfName)
	if err != nil {
		return "", err
	}
	return plan.Document, nil
}

// normalize drops selfName and duplicates and sorts the rest. It reports
// whether selfName was present.
func normalize(names []string, selfName string) ([]string, bool) {
	seen := make(map[string]struct{}, len(names))
	peers := make([]string, 0, len(names))
	sawSelf := false

	for _, n := range names {
		if n == selfName {
			sawSelf = true
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		peers = append(peers, n)
	}

	sort.Strings(peers)
	return peers, sawSelf
}
