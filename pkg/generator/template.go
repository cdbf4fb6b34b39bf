package generator

import (
	"fmt"
	"strings"
)

// BlockSeparator joins consecutive server blocks in a document.
const BlockSeparator = "\n\n"

const blockTemplate = `server {
  listen %d;
  server_name %s;
  location / {
    access_log off;
    proxy_pass http://%s:%d;
    proxy_set_header X-Real-IP $remote_addr;
    proxy_set_header Host $host;
    proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
  }
}`

// RenderBlock renders the server block that proxies HTTP traffic for host to
// http://host:port. It performs no validation of host.
func RenderBlock(host string, listenPort, port int) string {
	return fmt.Sprintf(blockTemplate, listenPort, host, host, port)
}

// Render renders one block per peer, in the given order, joined by
// BlockSeparator. An empty peer list renders an empty document.
func Render(peers []string, listenPort, port int) string {
	blocks := make([]string, 0, len(peers))
	for _, p := range peers {
		blocks = append(blocks, RenderBlock(p, listenPort, port))
	}
	return strings.Join(blocks, BlockSeparator)
}
