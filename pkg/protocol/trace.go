package protocol

import "strings"

// TraceNode is one node of the execution trace a model run produces. The
// tree shape mirrors what the runtime reports: a name, an optional message
// payload, and ordered children. Depth is controlled by an external runtime,
// so consumers must bound their own recursion.
type TraceNode struct {
	Name     string        `json:"name"`
	Message  *TraceMessage `json:"message,omitempty"`
	Children []*TraceNode  `json:"children,omitempty"`
}

// TraceMessage is the payload attached to a trace node.
type TraceMessage struct {
	Content []TraceContent `json:"content"`
}

// TraceContent is one content block of a trace message.
type TraceContent struct {
	Text string `json:"text,omitempty"`
}

// Text returns the concatenated text of the node's message blocks,
// or "" when the node carries no message.
func (n *TraceNode) Text() string {
	if n == nil || n.Message == nil {
		return ""
	}
	var b strings.Builder
	for _, c := range n.Message.Content {
		b.WriteString(c.Text)
	}
	return b.String()
}

// AddChild appends a child node and returns it, for incremental trace
// construction during a run.
func (n *TraceNode) AddChild(name string) *TraceNode {
	child := &TraceNode{Name: name}
	n.Children = append(n.Children, child)
	return child
}

// SetText replaces the node's message with a single text block.
func (n *TraceNode) SetText(text string) {
	n.Message = &TraceMessage{Content: []TraceContent{{Text: text}}}
}
