package chainlink

import (
	"context"
	"encoding/json"
	"fmt"
)

// Wallet provider notifications.
const (
	EventChainChanged    = "chainChanged"
	EventAccountsChanged = "accountsChanged"
)

// EIP-1193 and JSON-RPC error codes the client reacts to.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupportedMethod = 4200
	CodeDisconnected      = 4900
	CodeChainDisconnected = 4901
	CodeUnrecognizedChain = 4902
	CodeExecutionReverted = 3
	CodeInvalidParams     = -32602
)

// Provider is the wallet provider boundary: JSON-RPC style requests plus
// push notifications.
type Provider interface {
	// Request performs method with params and decodes the result into result
	// (which may be nil).
	Request(ctx context.Context, result any, method string, params ...any) error
	// Subscribe registers handler for a notification and returns its release.
	Subscribe(event string, handler func(json.RawMessage)) (release func())
}

// ProviderError is a coded error reported by a wallet provider. It satisfies
// go-ethereum's rpc.Error and rpc.DataError interfaces so both bridge and
// node errors classify the same way.
type ProviderError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// ErrorCode returns the numeric provider code.
func (e *ProviderError) ErrorCode() int { return e.Code }

// ErrorData returns the raw error data.
func (e *ProviderError) ErrorData() interface{} { return e.Data }
