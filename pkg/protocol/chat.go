package protocol

// Mode selects which role agent handles an operator message.
type Mode string

const (
	// ModeAsk is the read-only question-answering interaction.
	ModeAsk Mode = "ASK"
	// ModeDo is the command-execution interaction with the action toolset.
	ModeDo Mode = "DO"
)

// Valid reports whether the mode is one of the two accepted values.
func (m Mode) Valid() bool { return m == ModeAsk || m == ModeDo }

// ConversationTurn is one entry of the operator/agent transcript.
// History is append-only from the caller's side; this core only reads it.
type ConversationTurn struct {
	Role      string `json:"role"` // "user" or "agent"
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // unix millis
	IsAction  bool   `json:"isAction,omitempty"`
}

// Citation is one piece of retrieval evidence recovered from an execution
// trace. It exists only when the retrieve tool actually fired during a
// reply; a nil citation slice means "tool was not used", which downstream
// must keep distinct from an empty result.
type Citation struct {
	Score        float64 `json:"score"`
	DocumentID   string  `json:"documentId"`
	SourceURI    string  `json:"sourceUri,omitempty"`
	ChunkID      string  `json:"chunkId,omitempty"`
	DataSourceID string  `json:"dataSourceId,omitempty"`
}

// AgentReply is the normalized output of a chat dispatch. Created fresh per
// request and never mutated after construction.
type AgentReply struct {
	Response  string     `json:"response"`
	Citations []Citation `json:"citations"` // nil when not applicable
}

// ChatContext is the caller-supplied context for a chat dispatch: the raw
// ticket snapshot plus the latest briefing, both as loosely-typed data since
// the virtualization layer makes no schema promises.
type ChatContext struct {
	Data     []map[string]any `json:"data,omitempty"`
	Briefing map[string]any   `json:"briefing,omitempty"`
}
