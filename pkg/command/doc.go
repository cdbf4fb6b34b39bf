// Package command runs the external CLIs peersync drives (the container
// runtime and the reverse proxy).
//
// A Runner distinguishes two failure shapes that callers classify
// differently:
//
//   - *ExitError: the process ran and exited non-zero. For "nginx -t" this
//     is an ordinary "config invalid" answer; for "docker ps" it is a
//     query failure.
//   - any other error: the process could not be started or was killed by
//     the per-command timeout (ErrTimeout).
//
// FakeRunner is a scripted Runner used by the tests of the packages that
// shell out.
package command
