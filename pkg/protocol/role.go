package protocol

// Role names one of the three fixed agent roles.
type Role string

const (
	RoleBriefing Role = "briefing"
	RoleChat     Role = "chat"
	RoleAction   Role = "action"
)

// RoleSpec is the immutable configuration of one role agent. Specs are
// constructed once during process initialization and shared read-only by
// every pipeline invocation; the toolset for a request is passed to the
// runner per call, never attached by mutating the spec.
type RoleSpec struct {
	Role              Role   `json:"role"`
	Provider          string `json:"provider,omitempty"` // provider name, "" = default
	Model             string `json:"model,omitempty"`    // "" = provider default
	SystemInstruction string `json:"system_instruction"`
	MaxIterations     int    `json:"max_iterations,omitempty"`
}
