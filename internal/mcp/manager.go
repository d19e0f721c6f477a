package mcp

import (
	"context"
	"fmt"
	"sync"

	"scout/internal/logging"
)

// ServerConfig describes one MCP server attached to a task.
type ServerConfig struct {
	Name string `json:"name"`

	// stdio transport
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`

	// remote transports
	ConnectionURL   string `json:"connection_url,omitempty"`
	ConnectionType  string `json:"connection_type,omitempty"`
	ConnectionToken string `json:"connection_token,omitempty"`

	// ToolName pins a single tool, bypassing LLM selection.
	ToolName string `json:"tool_name,omitempty"`
}

// Manager owns the task's server connections. Clients are created lazily on
// first use, guarded by a lock, and reused until Close.
type Manager struct {
	configs []ServerConfig
	logger  logging.Logger

	mu      sync.Mutex
	clients map[string]*Client
	opened  bool
}

func NewManager(configs []ServerConfig, logger logging.Logger) *Manager {
	return &Manager{
		configs: configs,
		logger:  logging.OrNop(logger),
	}
}

// HasServers reports whether any server is configured.
func (m *Manager) HasServers() bool {
	return len(m.configs) > 0
}

// PinnedTool returns the tool name pinned by configuration, if any server
// pins one.
func (m *Manager) PinnedTool() string {
	for _, cfg := range m.configs {
		if cfg.ToolName != "" {
			return cfg.ToolName
		}
	}
	return ""
}

// ensureClients connects to every configured server once. Servers that fail
// to connect are logged and skipped; at least one must succeed.
func (m *Manager) ensureClients(ctx context.Context) (map[string]*Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opened {
		if len(m.clients) == 0 {
			return nil, fmt.Errorf("no MCP servers available")
		}
		return m.clients, nil
	}
	m.opened = true
	m.clients = make(map[string]*Client)

	for _, cfg := range m.configs {
		name := cfg.Name
		if name == "" {
			name = cfg.Command
		}
		transport, err := openTransport(ctx, cfg)
		if err != nil {
			m.logger.Warn("server %s: transport failed: %v", name, err)
			continue
		}
		client := NewClient(name, transport)
		if err := client.Start(ctx); err != nil {
			m.logger.Warn("server %s: %v", name, err)
			continue
		}
		m.clients[name] = client
	}

	if len(m.clients) == 0 {
		return nil, fmt.Errorf("no MCP servers available")
	}
	return m.clients, nil
}

// Tools aggregates the tool catalogues of all connected servers.
func (m *Manager) Tools(ctx context.Context) ([]ToolSchema, error) {
	clients, err := m.ensureClients(ctx)
	if err != nil {
		return nil, err
	}

	var all []ToolSchema
	for name, client := range clients {
		tools, err := client.ListTools(ctx)
		if err != nil {
			m.logger.Warn("server %s: list tools failed: %v", name, err)
			continue
		}
		all = append(all, tools...)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no tools discovered")
	}
	return all, nil
}

// CallTool routes a call to the server that owns the tool. tool.Server must
// be set (it is, for schemas returned by Tools).
func (m *Manager) CallTool(ctx context.Context, tool ToolSchema, arguments map[string]any) (any, error) {
	m.mu.Lock()
	client, ok := m.clients[tool.Server]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no client for server %s", tool.Server)
	}
	return client.CallTool(ctx, tool.Name, arguments)
}

// Close stops every client. Transport teardown failures are logged only.
func (m *Manager) Close() {
	m.mu.Lock()
	clients := m.clients
	m.clients = nil
	m.mu.Unlock()

	for name, client := range clients {
		if err := client.Stop(); err != nil {
			m.logger.Debug("server %s: close: %v", name, err)
		}
	}
}
