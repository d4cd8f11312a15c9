// Package runner drives the tool-calling loop for a single agent invocation:
// send messages to the LLM, execute any requested tool calls, and loop until
// the model returns a final text response or the iteration limit is reached.
// Every tool invocation is recorded in an execution trace so downstream
// consumers can inspect what the agent actually did.
package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/x360-io/x360/internal/provider"
	"github.com/x360-io/x360/internal/tool"
	"github.com/x360-io/x360/pkg/protocol"
)

const defaultMaxIterations = 10

// Runner executes one agent invocation against a provider with a bound toolset.
type Runner struct {
	Name          string
	Provider      provider.Provider
	Tools         *tool.Registry
	Logger        *slog.Logger
	Model         string
	MaxIterations int
}

// New creates a Runner with sensible defaults.
func New(name string, prov provider.Provider, tools *tool.Registry) *Runner {
	return &Runner{
		Name:          name,
		Provider:      prov,
		Tools:         tools,
		Logger:        slog.Default(),
		MaxIterations: defaultMaxIterations,
	}
}

// Result is the outcome of a completed run: the model's final text plus the
// execution trace of every tool call made along the way.
type Result struct {
	Text  string
	Trace *protocol.TraceNode
}

// Run executes the loop with a system instruction and a single user prompt.
func (r *Runner) Run(ctx context.Context, system, userPrompt string) (*Result, error) {
	messages := []protocol.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: userPrompt},
	}
	return r.runLoop(ctx, messages)
}

func (r *Runner) runLoop(ctx context.Context, messages []protocol.ChatMessage) (*Result, error) {
	maxIter := r.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	var toolDefs []protocol.ToolDefinition
	if r.Tools != nil {
		toolDefs = r.Tools.Definitions()
	}

	trace := &protocol.TraceNode{Name: r.Name}

	for i := 0; i < maxIter; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("runner %s: context cancelled: %w", r.Name, err)
		}

		req := protocol.ChatRequest{
			Model:    r.Model,
			Messages: messages,
			Tools:    toolDefs,
		}

		r.logger().Debug("chat request",
			"runner", r.Name,
			"iteration", i+1,
			"messages", len(messages),
		)

		resp, err := r.Provider.Chat(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("runner %s: provider error: %w", r.Name, err)
		}

		if !resp.HasToolCalls() {
			r.logger().Debug("final response",
				"runner", r.Name,
				"iteration", i+1,
				"content_len", len(resp.Content),
			)
			return &Result{Text: resp.Content, Trace: trace}, nil
		}

		messages = append(messages, protocol.ChatMessage{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, tc := range resp.ToolCalls {
			r.logger().Info(fmt.Sprintf("tool call: %s", tc.Name),
				"runner", r.Name,
				"call_id", tc.ID,
			)

			result, err := r.Tools.Execute(ctx, tc.Name, tc.Arguments)
			if err != nil {
				// Surface the error as tool output so the model can recover.
				result = fmt.Sprintf("Error: %v", err)
				r.logger().Warn(fmt.Sprintf("tool error: %s", tc.Name),
					"runner", r.Name,
					"error", err,
				)
			} else {
				r.logger().Info(fmt.Sprintf("tool result: %s", tc.Name),
					"runner", r.Name,
					"result_len", len(result),
				)
			}

			trace.AddChild(tc.Name).SetText(result)

			messages = append(messages, protocol.ChatMessage{
				Role:       "tool",
				Content:    result,
				ToolCallID: tc.ID,
				Name:       tc.Name,
			})
		}
	}

	return nil, fmt.Errorf("runner %s: exceeded max iterations (%d)", r.Name, maxIter)
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
