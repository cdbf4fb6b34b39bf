// Package container queries the local container runtime for peer discovery.
//
// DockerInspector shells out to the docker CLI:
//
//	docker ps --format {{.Names}} --filter network=<network>
//	docker inspect <name>
//
// IdentityResolver finds the sidecar's own container (by hostname unless
// overridden) and the network it discovers peers on. The result is cached
// for the process lifetime once resolution succeeds and can be dropped with
// Invalidate.
//
// Errors:
//   - *RuntimeQueryError: a runtime command failed or its output did not parse
//   - *MalformedResponseError: the output parsed but had the wrong shape
//   - *UnconfiguredNetworkError: the selected network cannot be used
package container
