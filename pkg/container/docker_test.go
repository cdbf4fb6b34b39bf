package container

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"mercator-hq/peersync/pkg/command"
)

const sidecarInspect = `[
  {
    "Id": "0f3c9a",
    "Name": "/proxy-sidecar",
    "NetworkSettings": {
      "Networks": {
        "svc-net": {"NetworkID": "n1", "IPAddress": "172.20.0.2", "Aliases": ["proxy-sidecar"]}
      }
    }
  }
]`

func TestDockerInspector_ListPeerNames(t *testing.T) {
	tests := []struct {
		name     string
		network  string
		cmdline  string
		response command.Response
		want     []string
		wantErr  bool
	}{
		{
			name:     "filtered by network",
			network:  "svc-net",
			cmdline:  "docker ps --format {{.Names}} --filter network=svc-net",
			response: command.Response{Stdout: "worker\napi\nproxy-sidecar\n"},
			want:     []string{"worker", "api", "proxy-sidecar"},
		},
		{
			name:     "no network filter",
			network:  "",
			cmdline:  "docker ps --format {{.Names}}",
			response: command.Response{Stdout: "api\n"},
			want:     []string{"api"},
		},
		{
			name:     "empty output",
			network:  "svc-net",
			cmdline:  "docker ps --format {{.Names}} --filter network=svc-net",
			response: command.Response{Stdout: "\n"},
			want:     []string{},
		},
		{
			name:     "non-zero exit",
			network:  "svc-net",
			cmdline:  "docker ps --format {{.Names}} --filter network=svc-net",
			response: command.Response{ExitCode: 1, Stderr: "Cannot connect to the Docker daemon"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := command.NewFakeRunner().On(tt.cmdline, tt.response)
			d := NewDockerInspector("docker", runner, nil)

			got, err := d.ListPeerNames(context.Background(), tt.network)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ListPeerNames() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var qe *RuntimeQueryError
				if !errors.As(err, &qe) {
					t.Errorf("expected *RuntimeQueryError, got %T", err)
				}
				return
			}
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ListPeerNames() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDockerInspector_InspectContainer(t *testing.T) {
	tests := []struct {
		name          string
		stdout        string
		exitCode      int
		wantName      string
		wantNetworks  []string
		wantQueryErr  bool
		wantMalformed bool
	}{
		{
			name:         "single record",
			stdout:       sidecarInspect,
			wantName:     "proxy-sidecar",
			wantNetworks: []string{"svc-net"},
		},
		{
			name:         "non-zero exit",
			stdout:       "",
			exitCode:     1,
			wantQueryErr: true,
		},
		{
			name:         "invalid json",
			stdout:       "not json",
			wantQueryErr: true,
		},
		{
			name:          "zero records",
			stdout:        "[]",
			wantMalformed: true,
		},
		{
			name:          "two records",
			stdout:        `[{"Name":"/a"},{"Name":"/b"}]`,
			wantMalformed: true,
		},
		{
			name:         "no networks",
			stdout:       `[{"Id":"x","Name":"/lonely"}]`,
			wantName:     "lonely",
			wantNetworks: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := command.NewFakeRunner().On("docker inspect proxy-sidecar", command.Response{
				Stdout:   tt.stdout,
				ExitCode: tt.exitCode,
			})
			d := NewDockerInspector("", runner, nil)

			info, err := d.InspectContainer(context.Background(), "proxy-sidecar")

			var qe *RuntimeQueryError
			var me *MalformedResponseError
			switch {
			case tt.wantQueryErr:
				if !errors.As(err, &qe) {
					t.Fatalf("expected *RuntimeQueryError, got %v", err)
				}
				return
			case tt.wantMalformed:
				if !errors.As(err, &me) {
					t.Fatalf("expected *MalformedResponseError, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("InspectContainer() unexpected error: %v", err)
			}
			if info.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", info.Name, tt.wantName)
			}
			if got := info.NetworkNames(); !reflect.DeepEqual(got, tt.wantNetworks) {
				t.Errorf("NetworkNames() = %v, want %v", got, tt.wantNetworks)
			}
		})
	}
}

func TestContainerInfo_NetworkNamesSorted(t *testing.T) {
	info := &ContainerInfo{Networks: map[string]EndpointInfo{
		"zeta":  {},
		"alpha": {},
		"mid":   {},
	}}

	want := []string{"alpha", "mid", "zeta"}
	for i := 0; i < 10; i++ {
		if got := info.NetworkNames(); !reflect.DeepEqual(got, want) {
			t.Fatalf("NetworkNames() = %v, want %v", got, want)
		}
	}
}
