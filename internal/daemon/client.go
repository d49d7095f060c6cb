package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/geomnodes/geomnodes/pkg/protocol"
)

// Client is the CLI side of the daemon socket.
type Client struct {
	conn *jsonrpc2.Conn
}

// Dial connects to a running daemon's unix socket.
func Dial(ctx context.Context, socketPath string) (*Client, error) {
	netConn, err := net.DialTimeout("unix", socketPath, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("daemon not reachable at %s: %w", socketPath, err)
	}

	stream := jsonrpc2.NewBufferedStream(netConn, jsonrpc2.PlainObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, noopHandler{})
	return &Client{conn: conn}, nil
}

type noopHandler struct{}

func (noopHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {}

func (c *Client) Call(ctx context.Context, method string, params, result interface{}) error {
	return c.conn.Call(ctx, method, params, result)
}

// ListNodes fetches the node definitions the daemon serves.
func (c *Client) ListNodes(ctx context.Context) ([]protocol.NodeDefinition, error) {
	var resp struct {
		Nodes []protocol.NodeDefinition `json:"nodes"`
	}
	if err := c.conn.Call(ctx, "node/list", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Nodes, nil
}

// ExecuteNode runs one node by name with raw JSON arguments.
func (c *Client) ExecuteNode(ctx context.Context, name string, arguments json.RawMessage) (json.RawMessage, error) {
	params := protocol.ExecuteParams{Name: name, Arguments: arguments}
	var resp struct {
		Result json.RawMessage `json:"result"`
	}
	if err := c.conn.Call(ctx, "node/execute", params, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

func (c *Client) Status(ctx context.Context) (*protocol.StatusResult, error) {
	var resp protocol.StatusResult
	if err := c.conn.Call(ctx, "status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Search(ctx context.Context, query string, limit int) (json.RawMessage, error) {
	params := protocol.SearchParams{Query: query, Limit: limit}
	var resp struct {
		Assets json.RawMessage `json:"assets"`
	}
	if err := c.conn.Call(ctx, "catalog/search", params, &resp); err != nil {
		return nil, err
	}
	return resp.Assets, nil
}

func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
