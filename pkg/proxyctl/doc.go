// Package proxyctl owns the nginx configuration file and drives the nginx
// binary: "nginx -t" to validate and "nginx -s reload" to apply.
package proxyctl
