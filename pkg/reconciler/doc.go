// Package reconciler keeps the nginx configuration in step with the peers
// on the sidecar's network.
//
// Each cycle walks the same state machine:
//
//	Idle -> Discovering -> Generating -> Comparing
//	     -> NoOp
//	     -> Applying -> Validating -> Reloading      (applied)
//	                              -> RollingBack     (rolled_back)
//
// The on-disk file is never left holding a document that failed
// "nginx -t": a write is always followed by validation, and a rejected
// document is replaced by the previous one before the cycle ends.
//
// Every error is caught at the cycle boundary and reported as
// OutcomeFailed with an ErrorKind; Run keeps looping until its context is
// cancelled. Consecutive unconfigured-network failures stretch the sleep
// according to Backoff, since that condition needs an operator to fix.
//
// Observers receive every Result. Metrics, health state and the journal
// attach through them.
package reconciler
