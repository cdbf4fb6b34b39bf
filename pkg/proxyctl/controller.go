package proxyctl

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"mercator-hq/peersync/pkg/command"
)

// Defaults for the nginx controller.
const (
	DefaultBinary     = "nginx"
	DefaultConfigPath = "/etc/nginx/conf.d/default.conf"
	DefaultFileMode   = fs.FileMode(0o644)
)

// Options configures a Controller.
type Options struct {
	// Binary is the proxy executable.
	Binary string

	// ConfigPath is the configuration file owned by peersync.
	ConfigPath string

	// AtomicWrite replaces the file through a temp file and rename instead of
	// truncating it in place.
	AtomicWrite bool

	// FileMode is applied to the written file.
	FileMode fs.FileMode
}

// Controller manages the nginx configuration file and process.
type Controller struct {
	runner command.Runner
	opts   Options
	logger *slog.Logger
}

// New returns a Controller that runs proxy commands through runner.
func New(runner command.Runner, opts Options, logger *slog.Logger) *Controller {
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = DefaultConfigPath
	}
	if opts.FileMode == 0 {
		opts.FileMode = DefaultFileMode
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		runner: runner,
		opts:   opts,
		logger: logger.With("component", "proxyctl"),
	}
}

// ConfigPath returns the managed configuration file path.
func (c *Controller) ConfigPath() string {
	return c.opts.ConfigPath
}

// Snapshot is the configuration file as found before a cycle changes it.
type Snapshot struct {
	Document string

	// Exists is false when there was no file at all.
	Exists bool
}

// Snapshot reads the configuration file, recording whether it existed.
func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	data, err := os.ReadFile(c.opts.ConfigPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.logger.DebugContext(ctx, "config file does not exist, treating as empty", "path", c.opts.ConfigPath)
			return Snapshot{}, nil
		}
		return Snapshot{}, &IOError{Operation: "read", Path: c.opts.ConfigPath, Cause: err}
	}
	return Snapshot{Document: string(data), Exists: true}, nil
}

// ReadConfig returns the current configuration document. A missing file is
// an empty document.
func (c *Controller) ReadConfig(ctx context.Context) (string, error) {
	snap, err := c.Snapshot(ctx)
	return snap.Document, err
}

// Restore puts the file back the way snap found it: rewritten, or removed
// if it did not exist.
func (c *Controller) Restore(ctx context.Context, snap Snapshot) error {
	if snap.Exists {
		return c.WriteConfig(ctx, snap.Document)
	}
	if err := os.Remove(c.opts.ConfigPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &IOError{Operation: "remove", Path: c.opts.ConfigPath, Cause: err}
	}
	c.logger.DebugContext(ctx, "removed config", "path", c.opts.ConfigPath)
	return nil
}

// WriteConfig replaces the configuration file with doc.
func (c *Controller) WriteConfig(ctx context.Context, doc string) error {
	var err error
	if c.opts.AtomicWrite {
		err = c.writeAtomic(doc)
	} else {
		err = os.WriteFile(c.opts.ConfigPath, []byte(doc), c.opts.FileMode)
	}
	if err != nil {
		return &IOError{Operation: "write", Path: c.opts.ConfigPath, Cause: err}
	}

	c.logger.DebugContext(ctx, "wrote config", "path", c.opts.ConfigPath, "bytes", len(doc))
	return nil
}

func (c *Controller) writeAtomic(doc string) error {
	dir := filepath.Dir(c.opts.ConfigPath)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(c.opts.ConfigPath)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.WriteString(doc); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Chmod(c.opts.FileMode); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, c.opts.ConfigPath); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Validate runs "nginx -t". It returns false without an error when nginx
// reports the configuration as invalid, and a *CommandError only when the
// check could not be run.
func (c *Controller) Validate(ctx context.Context) (bool, error) {
	res, err := c.runner.Run(ctx, c.opts.Binary, "-t")
	if err != nil {
		var exitErr *command.ExitError
		if errors.As(err, &exitErr) {
			c.logger.WarnContext(ctx, "proxy config validation failed",
				"exit_code", exitErr.ExitCode,
				"stderr", exitErr.Stderr,
			)
			return false, nil
		}
		return false, &CommandError{Command: "validate", Cause: err}
	}

	c.logger.DebugContext(ctx, "proxy config is valid", "output", res.Stderr)
	return true, nil
}

// Reload runs "nginx -s reload".
func (c *Controller) Reload(ctx context.Context) error {
	if _, err := c.runner.Run(ctx, c.opts.Binary, "-s", "reload"); err != nil {
		return &CommandError{Command: "reload", Cause: err}
	}
	c.logger.DebugContext(ctx, "proxy reloaded")
	return nil
}
