package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// JSON-RPC 2.0 specification: https://www.jsonrpc.org/specification

const jsonRPCVersion = "2.0"

// Standard JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
)

type request struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id,omitempty"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params,omitempty"`
}

type response struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *rpcError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("JSON-RPC error %d: %s (data: %v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("JSON-RPC error %d: %s", e.Code, e.Message)
}

type notification struct {
	JSONRPC string         `json:"jsonrpc"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params,omitempty"`
}

// newRequestID returns a fresh request ID. Remote transports can multiplex
// several clients onto one server, so IDs are globally unique rather than a
// per-connection counter.
func newRequestID() string {
	return uuid.NewString()
}

func newRequest(id any, method string, params map[string]any) *request {
	return &request{JSONRPC: jsonRPCVersion, ID: id, Method: method, Params: params}
}

func newNotification(method string, params map[string]any) *notification {
	return &notification{JSONRPC: jsonRPCVersion, Method: method, Params: params}
}

func marshalFrame(v any) ([]byte, error) {
	return json.Marshal(v)
}

func unmarshalResponse(data []byte) (*response, error) {
	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &rpcError{Code: codeParseError, Message: "failed to parse JSON-RPC response", Data: err.Error()}
	}
	if resp.JSONRPC != jsonRPCVersion {
		return nil, &rpcError{Code: codeInvalidRequest, Message: fmt.Sprintf("invalid JSON-RPC version: %s", resp.JSONRPC)}
	}
	return &resp, nil
}

func (r *response) isError() bool {
	return r.Error != nil
}

// unmarshalResult re-marshals a decoded result value into a typed target.
func unmarshalResult(result any, target any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}
