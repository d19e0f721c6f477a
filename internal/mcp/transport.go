package mcp

import (
	"context"
	"fmt"
	"strings"
)

// Transport moves raw JSON-RPC frames to and from an MCP server. Incoming
// frames arrive on Messages; the channel closes when the transport dies.
type Transport interface {
	Send(ctx context.Context, data []byte) error
	Messages() <-chan []byte
	Close() error
}

// Transport kinds.
const (
	transportStdio     = "stdio"
	transportWebsocket = "websocket"
	transportHTTP      = "http"
)

// transportKind picks the transport for a server config: ws/wss URLs use
// websocket, http/https use streamable HTTP, anything else runs the command
// over stdio. An explicit connection_type overrides the URL scheme.
func transportKind(cfg ServerConfig) string {
	if cfg.ConnectionType != "" {
		return cfg.ConnectionType
	}
	url := strings.ToLower(strings.TrimSpace(cfg.ConnectionURL))
	switch {
	case strings.HasPrefix(url, "wss://"), strings.HasPrefix(url, "ws://"):
		return transportWebsocket
	case strings.HasPrefix(url, "https://"), strings.HasPrefix(url, "http://"):
		return transportHTTP
	default:
		return transportStdio
	}
}

func openTransport(ctx context.Context, cfg ServerConfig) (Transport, error) {
	switch kind := transportKind(cfg); kind {
	case transportWebsocket:
		return dialWebsocket(ctx, cfg.ConnectionURL, cfg.ConnectionToken)
	case transportHTTP:
		return newHTTPTransport(cfg.ConnectionURL, cfg.ConnectionToken), nil
	case transportStdio:
		return startStdio(ctx, cfg.Command, cfg.Args, cfg.Env)
	default:
		return nil, fmt.Errorf("unknown transport %q for server %s", kind, cfg.Name)
	}
}
