// peersync keeps an nginx reverse proxy in step with the containers that
// share its Docker network.
//
// It runs as a sidecar next to nginx. Every cycle it lists the sibling
// containers on its own network, renders one server block per container,
// and when the result differs from the live config it writes the file,
// checks it with nginx -t, then reloads nginx or restores the old file.
//
// Usage:
//
//	# Run the reconciliation loop
//	peersync run --config /etc/peersync/peersync.yaml
//
//	# Run a single cycle and exit
//	peersync reconcile
//
//	# Print the config that would be written, without touching nginx
//	peersync render
//
//	# Inspect reconciliation history (requires journal.enabled)
//	peersync history --outcome rolled_back
//	peersync history show <record-id>
//
//	# Check a configuration file
//	peersync validate --config peersync.yaml
package main

func main() {
	Execute()
}
