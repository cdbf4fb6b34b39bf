// Package generator renders the nginx configuration for the peers of a
// network.
//
// The document is a pure function of the peer set: names are deduplicated,
// the sidecar's own name is removed, and the rest are sorted before
// rendering, so the order the runtime reports containers in never changes
// the output. Each peer gets one server block:
//
//	server {
//	  listen 80;
//	  server_name api;
//	  location / {
//	    access_log off;
//	    proxy_pass http://api:80;
//	    ...
//	  }
//	}
//
// Blocks are separated by a blank line. No peers means an empty document.
//
// Peer names are checked against a hostname grammar according to the
// configured ValidationMode before they reach the template.
package generator
