// Package dispatch routes operator requests to the three role agents and
// owns the degraded-mode boundary: callers always get a well-formed reply,
// even when a provider is down or the model output cannot be parsed.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/x360-io/x360/internal/citation"
	"github.com/x360-io/x360/internal/extract"
	"github.com/x360-io/x360/internal/kb"
	"github.com/x360-io/x360/internal/notify"
	"github.com/x360-io/x360/internal/prompt"
	"github.com/x360-io/x360/internal/provider"
	"github.com/x360-io/x360/internal/runner"
	"github.com/x360-io/x360/internal/snapshot"
	"github.com/x360-io/x360/internal/tool"
	"github.com/x360-io/x360/pkg/protocol"
)

// Dispatcher holds the immutable role configuration and the shared
// subsystems the tools need. It is safe for concurrent use; per-request
// state (toolsets, prompts) is built fresh on every call.
type Dispatcher struct {
	specs     map[protocol.Role]protocol.RoleSpec
	providers map[string]provider.Provider
	defName   string
	kb        *kb.Store
	store     snapshot.Store
	notifier  notify.Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithNotifier attaches a delivery sink for send_notification.
func WithNotifier(n notify.Notifier) Option {
	return func(d *Dispatcher) { d.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithSpec overrides the configuration of one role. The built-in system
// instruction is preserved when the override leaves it empty.
func WithSpec(spec protocol.RoleSpec) Option {
	return func(d *Dispatcher) {
		if spec.SystemInstruction == "" {
			spec.SystemInstruction = d.specs[spec.Role].SystemInstruction
		}
		d.specs[spec.Role] = spec
	}
}

// WithClock overrides the current_time tool's clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// New creates a Dispatcher. providers maps provider name to implementation;
// defaultProvider is used by any role whose spec names no provider.
func New(providers map[string]provider.Provider, defaultProvider string, kbStore *kb.Store, store snapshot.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		specs:     DefaultSpecs(),
		providers: providers,
		defName:   defaultProvider,
		kb:        kbStore,
		store:     store,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Chat handles an ASK or DO request. The returned reply is always non-nil:
// pipeline failures degrade to the offline literal. The only error is an
// invalid mode, which the API layer should have rejected already.
func (d *Dispatcher) Chat(ctx context.Context, mode protocol.Mode, message string, history []protocol.ConversationTurn, chatCtx protocol.ChatContext) (*protocol.AgentReply, error) {
	var (
		reply *protocol.AgentReply
		err   error
	)

	if !mode.Valid() {
		return nil, fmt.Errorf("dispatch: invalid mode %q", mode)
	}

	start := time.Now()
	err = d.runPipeline(func() error {
		var perr error
		if mode == protocol.ModeAsk {
			reply, perr = d.ask(ctx, message, history, chatCtx)
		} else {
			reply, perr = d.do(ctx, message, chatCtx)
		}
		return perr
	})

	if err != nil {
		d.logger.Error("chat pipeline failed, degrading",
			"mode", mode,
			"error", err,
			"elapsed", time.Since(start),
		)
		return &protocol.AgentReply{Response: fallbackChatResponse}, nil
	}

	d.logger.Info("chat pipeline complete",
		"mode", mode,
		"citations", len(reply.Citations),
		"elapsed", time.Since(start),
	)
	return reply, nil
}

// Briefing analyzes the ticket snapshot and returns a structured briefing.
// Always non-nil: any failure degrades to the offline summary with no items.
func (d *Dispatcher) Briefing(ctx context.Context, data []map[string]any) *protocol.Briefing {
	start := time.Now()
	var b *protocol.Briefing
	err := d.runPipeline(func() error {
		var perr error
		b, perr = d.brief(ctx, data)
		return perr
	})
	if err != nil {
		d.logger.Error("briefing pipeline failed, degrading",
			"error", err,
			"elapsed", time.Since(start),
		)
		return &protocol.Briefing{
			Summary: fallbackBriefingSummary,
			Items:   []protocol.BriefingItem{},
		}
	}

	d.warnUnknownTickets(b, data)
	d.logger.Info("briefing pipeline complete",
		"items", len(b.Items),
		"elapsed", time.Since(start),
	)
	return b
}

// runPipeline runs one agent pipeline and converts a panic into an error,
// so a faulty tool or a malformed trace degrades like any other pipeline
// failure instead of crossing the dispatch boundary.
func (d *Dispatcher) runPipeline(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch: pipeline panic: %v", r)
		}
	}()
	return fn()
}

func (d *Dispatcher) ask(ctx context.Context, message string, history []protocol.ConversationTurn, chatCtx protocol.ChatContext) (*protocol.AgentReply, error) {
	tools := tool.NewRegistry(
		&tool.QueryTicketsTool{Data: chatCtx.Data},
		&tool.RetrieveTool{KB: d.kb},
	)

	r, err := d.runnerFor(protocol.RoleChat, tools)
	if err != nil {
		return nil, err
	}

	ctxBlock := prompt.BuildChatContext(chatCtx.Data, chatCtx.Briefing, history)
	res, err := r.Run(ctx, d.specs[protocol.RoleChat].SystemInstruction, prompt.BuildChatPrompt(ctxBlock, message))
	if err != nil {
		return nil, err
	}

	return &protocol.AgentReply{
		Response:  extract.ResponseSpan(res.Text),
		Citations: citation.Resolve(res.Trace),
	}, nil
}

func (d *Dispatcher) do(ctx context.Context, command string, chatCtx protocol.ChatContext) (*protocol.AgentReply, error) {
	// The retrieval tool is never attached in DO mode, so DO replies can
	// never carry citations.
	tools := tool.NewRegistry(
		&tool.UpdateTicketStatusTool{Audit: d.store, Logger: d.logger},
		&tool.TriggerAutomationTool{Audit: d.store, Logger: d.logger},
		&tool.SendNotificationTool{Audit: d.store, Notifier: d.notifier, Logger: d.logger},
	)

	r, err := d.runnerFor(protocol.RoleAction, tools)
	if err != nil {
		return nil, err
	}

	res, err := r.Run(ctx, d.specs[protocol.RoleAction].SystemInstruction, prompt.BuildActionPrompt(chatCtx.Data, command))
	if err != nil {
		return nil, err
	}

	return &protocol.AgentReply{Response: extract.ResponseSpan(res.Text)}, nil
}

func (d *Dispatcher) brief(ctx context.Context, data []map[string]any) (*protocol.Briefing, error) {
	tools := tool.NewRegistry(&tool.CurrentTimeTool{Now: d.now})

	r, err := d.runnerFor(protocol.RoleBriefing, tools)
	if err != nil {
		return nil, err
	}

	res, err := r.Run(ctx, d.specs[protocol.RoleBriefing].SystemInstruction, prompt.BuildBriefingPrompt(data))
	if err != nil {
		return nil, err
	}

	return extract.BriefingObject(res.Text)
}

func (d *Dispatcher) runnerFor(role protocol.Role, tools *tool.Registry) (*runner.Runner, error) {
	spec := d.specs[role]

	name := spec.Provider
	if name == "" {
		name = d.defName
	}
	prov, ok := d.providers[name]
	if !ok {
		return nil, fmt.Errorf("dispatch: role %s: unknown provider %q", role, name)
	}

	r := runner.New(string(role), prov, tools)
	r.Logger = d.logger
	r.Model = spec.Model
	if spec.MaxIterations > 0 {
		r.MaxIterations = spec.MaxIterations
	}
	return r, nil
}

// warnUnknownTickets logs briefing items that reference ticket IDs absent
// from the analyzed snapshot. The items are kept; the model may still be
// pointing at something real.
func (d *Dispatcher) warnUnknownTickets(b *protocol.Briefing, data []map[string]any) {
	known := make(map[string]bool, len(data))
	for _, rec := range data {
		if id, ok := rec["id"].(string); ok {
			known[id] = true
		}
	}
	for _, item := range b.Items {
		for _, id := range item.RelatedTicketIDs {
			if !known[id] {
				d.logger.Warn("briefing item references unknown ticket",
					"item", item.ID,
					"ticket", id,
				)
			}
		}
	}
}
