package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/geomnodes/geomnodes/internal/catalog"
	"github.com/geomnodes/geomnodes/internal/nodes"
	"github.com/geomnodes/geomnodes/internal/preview"
	"github.com/geomnodes/geomnodes/pkg/protocol"
)

// Handler serves the host-facing JSON-RPC methods over one socket
// connection. Node panics are already recovered inside the registry;
// everything surfacing here is a plain error mapped to a JSON-RPC code.
type Handler struct {
	registry    *nodes.Registry
	store       *preview.Cache
	cat         *catalog.Store
	execTimeout time.Duration
	startTime   time.Time
}

func NewHandler(registry *nodes.Registry, store *preview.Cache, cat *catalog.Store, execTimeout time.Duration, startTime time.Time) *Handler {
	if execTimeout <= 0 {
		execTimeout = 4 * time.Minute
	}
	return &Handler{
		registry:    registry,
		store:       store,
		cat:         cat,
		execTimeout: execTimeout,
		startTime:   startTime,
	}
}

func (h *Handler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	if req.Notif {
		return
	}

	result, rpcErr := h.dispatch(ctx, req)
	if rpcErr != nil {
		if err := conn.ReplyWithError(ctx, req.ID, rpcErr); err != nil {
			log.Debug("failed to send error reply", "method", req.Method, "error", err)
		}
		return
	}

	if err := conn.Reply(ctx, req.ID, result); err != nil {
		log.Debug("failed to send reply", "method", req.Method, "error", err)
	}
}

func (h *Handler) dispatch(ctx context.Context, req *jsonrpc2.Request) (interface{}, *jsonrpc2.Error) {
	switch req.Method {
	case "node/list":
		return h.handleList(), nil
	case "node/execute":
		return h.handleExecute(ctx, req)
	case "catalog/search":
		return h.handleSearch(req)
	case "status":
		return h.handleStatus(), nil
	case "ping":
		return map[string]interface{}{}, nil
	default:
		return nil, &jsonrpc2.Error{
			Code:    protocol.CodeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s", req.Method),
		}
	}
}

func (h *Handler) handleList() interface{} {
	defs := h.registry.Definitions()
	wire := make([]protocol.NodeDefinition, len(defs))
	for i, def := range defs {
		var schema map[string]interface{}
		if err := json.Unmarshal(def.InputSchema, &schema); err != nil {
			schema = map[string]interface{}{"type": "object"}
		}
		wire[i] = protocol.NodeDefinition{
			Name:        def.Name,
			Title:       def.Category,
			Description: def.Description,
			InputSchema: schema,
			Annotations: def.Annotations,
		}
	}
	return map[string]interface{}{"nodes": wire}
}

func (h *Handler) handleExecute(ctx context.Context, req *jsonrpc2.Request) (interface{}, *jsonrpc2.Error) {
	var params protocol.ExecuteParams
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, &jsonrpc2.Error{
			Code:    protocol.CodeInternalError,
			Message: "node name is required",
		}
	}

	args := params.Arguments
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	started := time.Now()
	result, err := h.registry.ExecuteWithTimeout(ctx, params.Name, args, h.execTimeout)
	if err != nil {
		log.Warn("node execution failed", "node", params.Name, "error", err)
		code := protocol.CodeInternalError
		var nodeErr *nodes.NodeError
		if errors.As(err, &nodeErr) {
			code = nodeErr.Code
		}
		return nil, &jsonrpc2.Error{Code: int64(code), Message: err.Error()}
	}

	log.Info("node executed", "node", params.Name, "duration", time.Since(started).Round(time.Millisecond))
	return protocol.ExecuteResult{Result: result}, nil
}

func (h *Handler) handleSearch(req *jsonrpc2.Request) (interface{}, *jsonrpc2.Error) {
	var params protocol.SearchParams
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}

	if h.cat == nil {
		return map[string]interface{}{"assets": []interface{}{}}, nil
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	assets, err := h.cat.Search(params.Query, limit)
	if err != nil {
		return nil, &jsonrpc2.Error{
			Code:    protocol.CodeInternalError,
			Message: fmt.Sprintf("catalog search: %v", err),
		}
	}
	return map[string]interface{}{"assets": assets}, nil
}

func (h *Handler) handleStatus() interface{} {
	return protocol.StatusResult{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Nodes:         h.registry.Len(),
		CachedMeshes:  h.store.Len(),
	}
}

func unmarshalParams(req *jsonrpc2.Request, out interface{}) *jsonrpc2.Error {
	if req.Params == nil {
		return &jsonrpc2.Error{
			Code:    protocol.CodeInternalError,
			Message: "params are required",
		}
	}
	if err := json.Unmarshal(*req.Params, out); err != nil {
		return &jsonrpc2.Error{
			Code:    protocol.CodeParseError,
			Message: fmt.Sprintf("invalid params: %v", err),
		}
	}
	return nil
}
