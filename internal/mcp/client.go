package mcp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"scout/internal/async"
	"scout/internal/logging"
)

// protocolVersion is the MCP protocol revision this client speaks.
const protocolVersion = "2024-11-05"

// callTimeout bounds every JSON-RPC round trip.
const callTimeout = 30 * time.Second

// ToolSchema describes one tool exposed by a server.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`

	// Server is the name of the server that owns the tool. Filled in by the
	// manager when aggregating tool lists.
	Server string `json:"-"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeResult struct {
	ProtocolVersion string     `json:"protocolVersion"`
	ServerInfo      serverInfo `json:"serverInfo"`
}

// Client is a JSON-RPC client for one MCP server, transport-agnostic.
type Client struct {
	serverName string
	transport  Transport
	logger     logging.Logger

	mu           sync.RWMutex
	pendingCalls map[any]chan *response
	initialized  bool
}

// NewClient wraps an open transport. Call Start to run the handshake.
func NewClient(serverName string, transport Transport) *Client {
	return &Client{
		serverName:   serverName,
		transport:    transport,
		pendingCalls: make(map[any]chan *response),
		logger:       logging.NewComponentLogger(fmt.Sprintf("mcp[%s]", serverName)),
	}
}

// Start launches the response router and performs the initialize handshake.
func (c *Client) Start(ctx context.Context) error {
	async.Go(c.logger, "mcp-client-route", c.routeLoop)

	if err := c.initialize(ctx); err != nil {
		_ = c.transport.Close()
		return fmt.Errorf("initialize handshake: %w", err)
	}
	return nil
}

// Stop closes the underlying transport.
func (c *Client) Stop() error {
	return c.transport.Close()
}

func (c *Client) initialize(ctx context.Context) error {
	params := map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    "scout",
			"version": "0.1.0",
		},
	}

	result, err := c.call(ctx, "initialize", params)
	if err != nil {
		return err
	}

	var init initializeResult
	if err := unmarshalResult(result, &init); err != nil {
		return fmt.Errorf("parse initialize result: %w", err)
	}
	if init.ProtocolVersion != protocolVersion {
		c.logger.Warn("protocol version mismatch: client=%s server=%s", protocolVersion, init.ProtocolVersion)
	}

	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()
	c.logger.Info("connected to %s v%s", init.ServerInfo.Name, init.ServerInfo.Version)

	if err := c.notify(ctx, "notifications/initialized", nil); err != nil {
		c.logger.Warn("initialized notification failed: %v", err)
	}
	return nil
}

// ListTools returns the server's tool catalogue.
func (c *Client) ListTools(ctx context.Context) ([]ToolSchema, error) {
	if !c.IsInitialized() {
		return nil, fmt.Errorf("client not initialized")
	}

	result, err := c.call(ctx, "tools/list", nil)
	if err != nil {
		return nil, fmt.Errorf("tools/list: %w", err)
	}

	var decoded struct {
		Tools []ToolSchema `json:"tools"`
	}
	if err := unmarshalResult(result, &decoded); err != nil {
		return nil, fmt.Errorf("parse tools list: %w", err)
	}
	for i := range decoded.Tools {
		decoded.Tools[i].Server = c.serverName
	}
	return decoded.Tools, nil
}

// CallTool executes a tool and returns the raw decoded result payload.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (any, error) {
	if !c.IsInitialized() {
		return nil, fmt.Errorf("client not initialized")
	}

	params := map[string]any{
		"name":      name,
		"arguments": arguments,
	}
	result, err := c.call(ctx, "tools/call", params)
	if err != nil {
		return nil, fmt.Errorf("tools/call %s: %w", name, err)
	}
	return result, nil
}

func (c *Client) call(ctx context.Context, method string, params map[string]any) (any, error) {
	id := newRequestID()
	data, err := marshalFrame(newRequest(id, method, params))
	if err != nil {
		return nil, err
	}

	respChan := make(chan *response, 1)
	c.mu.Lock()
	c.pendingCalls[id] = respChan
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pendingCalls, id)
		c.mu.Unlock()
	}()

	c.logger.Debug("request method=%s id=%s", method, id)
	if err := c.transport.Send(ctx, data); err != nil {
		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	select {
	case resp := <-respChan:
		if resp.isError() {
			return nil, resp.Error
		}
		return resp.Result, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
	case <-time.After(callTimeout):
		return nil, fmt.Errorf("%s timed out after %s", method, callTimeout)
	}
}

func (c *Client) notify(ctx context.Context, method string, params map[string]any) error {
	data, err := marshalFrame(newNotification(method, params))
	if err != nil {
		return err
	}
	return c.transport.Send(ctx, data)
}

// routeLoop delivers incoming responses to their pending callers. Exits when
// the transport's message channel closes.
func (c *Client) routeLoop() {
	for data := range c.transport.Messages() {
		resp, err := unmarshalResponse(data)
		if err != nil {
			c.logger.Error("bad frame: %v", err)
			continue
		}

		c.mu.RLock()
		ch, ok := c.pendingCalls[resp.ID]
		c.mu.RUnlock()
		if !ok {
			c.logger.Warn("no pending call for response id=%v", resp.ID)
			continue
		}
		select {
		case ch <- resp:
		default:
			c.logger.Warn("response channel full, dropping id=%v", resp.ID)
		}
	}
	c.logger.Debug("route loop exited")
}

// IsInitialized reports whether the handshake has completed.
func (c *Client) IsInitialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}
