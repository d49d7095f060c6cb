package nodes

import "fmt"

// NodeError carries the JSON-RPC error code the daemon reports for a
// registry-level failure.
type NodeError struct {
	Code    int
	Message string
}

func (e *NodeError) Error() string {
	return e.Message
}

func NewNodeNotFoundError(name string) *NodeError {
	return &NodeError{
		Code:    -32601,
		Message: fmt.Sprintf("node not found: %s", name),
	}
}

func NewNodeExecutionError(name string, err error) *NodeError {
	return &NodeError{
		Code:    -32603,
		Message: fmt.Sprintf("error executing node %s: %v", name, err),
	}
}
