package container

import "fmt"

// RuntimeQueryError reports a container runtime command that failed or whose
// output could not be parsed. It is transient: the next cycle retries.
type RuntimeQueryError struct {
	// Operation is the query that failed ("list", "inspect").
	Operation string

	// Target is the network or container the query was about.
	Target string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *RuntimeQueryError) Error() string {
	return fmt.Sprintf("runtime query failed [operation=%s, target=%s]: %v", e.Operation, e.Target, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *RuntimeQueryError) Unwrap() error {
	return e.Cause
}

// MalformedResponseError reports a runtime response that parsed but violated
// the expected shape, e.g. an inspect returning other than exactly one record.
type MalformedResponseError struct {
	Operation string
	Target    string
	Message   string
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed runtime response [operation=%s, target=%s]: %s", e.Operation, e.Target, e.Message)
}

// UnconfiguredNetworkError reports that the sidecar is not attached to a
// dedicated named network. It does not resolve on its own; the operator has
// to change the deployment.
type UnconfiguredNetworkError struct {
	Network string
	Reason  string
}

// Error implements the error interface.
func (e *UnconfiguredNetworkError) Error() string {
	return fmt.Sprintf("network %q cannot be used for peer discovery: %s", e.Network, e.Reason)
}

// NewDefaultNetworkError returns the error raised when the selected network
// is the runtime's shared default network.
func NewDefaultNetworkError(network string) *UnconfiguredNetworkError {
	return &UnconfiguredNetworkError{
		Network: network,
		Reason: "run this container on its own network with '--network=<name>' " +
			"(create one first with 'docker network create <name>')",
	}
}
