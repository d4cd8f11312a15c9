// Package provider holds the LLM backends the role agents run on. Each
// provider speaks its API's wire format directly; the runner and the
// dispatcher only ever see protocol.ChatRequest/ChatResponse.
package provider

import (
	"context"

	"github.com/x360-io/x360/pkg/protocol"
)

// userAgent identifies this core in outbound API requests.
const userAgent = "x360-core/1.0"

// Provider is the abstraction over LLM APIs.
type Provider interface {
	Chat(ctx context.Context, req protocol.ChatRequest) (*protocol.ChatResponse, error)
	Name() string
}
