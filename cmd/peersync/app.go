package main

import (
	"log/slog"

	"mercator-hq/peersync/pkg/cli"
	"mercator-hq/peersync/pkg/command"
	"mercator-hq/peersync/pkg/config"
	"mercator-hq/peersync/pkg/container"
	"mercator-hq/peersync/pkg/generator"
	"mercator-hq/peersync/pkg/proxyctl"
	"mercator-hq/peersync/pkg/reconciler"
)

// components are the reconciliation collaborators shared by run,
// reconcile and render.
type components struct {
	inspector  *container.DockerInspector
	identity   *container.IdentityResolver
	generator  *generator.Generator
	proxy      *proxyctl.Controller
	reconciler *reconciler.Reconciler
}

// componentOptions carries the optional hooks wired into the components.
type componentOptions struct {
	// Observe records every external command; nil disables it.
	Observe command.Observer

	Tracer    reconciler.SpanStarter
	Observers []reconciler.Observer
}

// newRunners returns the runners for the container runtime and the proxy.
// They are separate because each has its own timeout.
func newRunners(cfg *config.Config, observe command.Observer) (runtimeRunner, proxyRunner command.Runner) {
	rt := command.NewExecRunner(cfg.Runtime.CommandTimeout)
	rt.Observe = observe
	px := command.NewExecRunner(cfg.Proxy.CommandTimeout)
	px.Observe = observe
	return rt, px
}

func buildComponents(cfg *config.Config, runtimeRunner, proxyRunner command.Runner, logger *slog.Logger, opts componentOptions) (*components, error) {
	mode, err := generator.ParseValidationMode(cfg.Generator.HostnameValidation)
	if err != nil {
		return nil, cli.NewConfigError("generator.hostname_validation", err.Error())
	}

	inspector := container.NewDockerInspector(cfg.Runtime.Binary, runtimeRunner, logger)
	identity := container.NewIdentityResolver(inspector, container.IdentityConfig{
		SelfName: cfg.Runtime.SelfName,
		Network:  cfg.Runtime.Network,
	}, logger)

	gen := generator.New(inspector, generator.Options{
		Port:           cfg.Generator.Port,
		ListenPort:     cfg.Generator.ListenPort,
		DefaultNetwork: cfg.Runtime.DefaultNetwork,
		Validation:     mode,
	}, logger)

	proxy := proxyctl.New(proxyRunner, proxyctl.Options{
		Binary:      cfg.Proxy.Binary,
		ConfigPath:  cfg.Proxy.ConfigPath,
		AtomicWrite: cfg.Proxy.AtomicWrite,
		FileMode:    cfg.Proxy.FileMode,
	}, logger)

	rec := reconciler.New(identity, gen, proxy, reconciler.Options{
		Interval:  cfg.Reconcile.Interval,
		Backoff:   backoffFrom(&cfg.Reconcile),
		Tracer:    opts.Tracer,
		Logger:    logger,
		Observers: opts.Observers,
	})

	return &components{
		inspector:  inspector,
		identity:   identity,
		generator:  gen,
		proxy:      proxy,
		reconciler: rec,
	}, nil
}

func backoffFrom(cfg *config.ReconcileConfig) reconciler.Backoff {
	return reconciler.Backoff{
		Enabled:     cfg.Backoff.Enabled,
		MaxInterval: cfg.Backoff.MaxInterval,
		Multiplier:  cfg.Backoff.Multiplier,
	}
}
