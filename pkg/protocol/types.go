package protocol

import "encoding/json"

type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInternalError  = -32603
)

// NodeDefinition is the wire form of a registered node, consumed by the
// host UI to build parameter widgets.
type NodeDefinition struct {
	Name        string                 `json:"name"`
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
	Annotations map[string]bool        `json:"annotations,omitempty"`
}

type ExecuteParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type ExecuteResult struct {
	Result interface{} `json:"result"`
}

type SearchParams struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type StatusResult struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Nodes         int    `json:"nodes"`
	CachedMeshes  int    `json:"cached_meshes"`
}
