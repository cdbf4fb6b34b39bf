package container

import (
	"context"
	"sort"
)

// DefaultNetwork is the name of Docker's implicit shared network.
const DefaultNetwork = "bridge"

// ContainerInfo is the subset of an inspect record peersync uses.
type ContainerInfo struct {
	ID       string
	Name     string
	Networks map[string]EndpointInfo
}

// EndpointInfo describes a container's attachment to one network.
type EndpointInfo struct {
	NetworkID string   `json:"NetworkID"`
	IPAddress string   `json:"IPAddress"`
	Aliases   []string `json:"Aliases"`
}

// NetworkNames returns the attached network names in lexical order.
func (c *ContainerInfo) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks))
	for name := range c.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NetworkIdentity is the (network, container name) pair of the running
// sidecar.
type NetworkIdentity struct {
	Network  string
	SelfName string
}

// Inspector queries the container runtime.
type Inspector interface {
	// ListPeerNames returns the names of all running containers attached to
	// network, in the order the runtime reports them.
	ListPeerNames(ctx context.Context, network string) ([]string, error)

	// InspectContainer returns metadata for exactly one container.
	InspectContainer(ctx context.Context, name string) (*ContainerInfo, error)
}
