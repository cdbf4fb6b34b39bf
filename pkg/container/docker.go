package container

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"mercator-hq/peersync/pkg/command"
)

// DockerInspector implements Inspector on top of the docker CLI.
type DockerInspector struct {
	binary string
	runner command.Runner
	logger *slog.Logger
}

// NewDockerInspector returns an inspector that invokes binary (usually
// "docker") through runner.
func NewDockerInspector(binary string, runner command.Runner, logger *slog.Logger) *DockerInspector {
	if binary == "" {
		binary = "docker"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DockerInspector{
		binary: binary,
		runner: runner,
		logger: logger.With("component", "container.docker"),
	}
}

// ListPeerNames lists the running containers attached to network. An empty
// network lists every running container.
func (d *DockerInspector) ListPeerNames(ctx context.Context, network string) ([]string, error) {
	args := []string{"ps", "--format", "{{.Names}}"}
	if network != "" {
		args = append(args, "--filter", "network="+network)
	}

	d.logger.DebugContext(ctx, "listing containers", "network", network)

	res, err := d.runner.Run(ctx, d.binary, args...)
	if err != nil {
		return nil, &RuntimeQueryError{Operation: "list", Target: network, Cause: err}
	}

	return strings.Fields(res.Stdout), nil
}

type inspectRecord struct {
	ID              string `json:"Id"`
	Name            string `json:"Name"`
	NetworkSettings struct {
		Networks map[string]EndpointInfo `json:"Networks"`
	} `json:"NetworkSettings"`
}

// InspectContainer inspects a single container by name or ID.
func (d *DockerInspector) InspectContainer(ctx context.Context, name string) (*ContainerInfo, error) {
	res, err := d.runner.Run(ctx, d.binary, "inspect", name)
	if err != nil {
		return nil, &RuntimeQueryError{Operation: "inspect", Target: name, Cause: err}
	}

	var records []inspectRecord
	if err := json.Unmarshal([]byte(res.Stdout), &records); err != nil {
		return nil, &RuntimeQueryError{
			Operation: "inspect",
			Target:    name,
			Cause:     fmt.Errorf("failed to parse inspect output: %w", err),
		}
	}

	if len(records) != 1 {
		return nil, &MalformedResponseError{
			Operation: "inspect",
			Target:    name,
			Message:   fmt.Sprintf("expected exactly 1 record, got %d", len(records)),
		}
	}

	rec := records[0]
	networks := rec.NetworkSettings.Networks
	if networks == nil {
		networks = map[string]EndpointInfo{}
	}

	return &ContainerInfo{
		ID:       rec.ID,
		Name:     strings.TrimPrefix(rec.Name, "/"),
		Networks: networks,
	}, nil
}
