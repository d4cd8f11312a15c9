// Package citation recovers retrieval evidence from execution traces.
//
// When the chat agent consults the knowledge base, the runtime records the
// retrieve tool's formatted output in the trace tree. This package walks
// the tree for the first retrieve invocation and parses its line-oriented
// output back into Citation records.
package citation

import (
	"strconv"
	"strings"

	"github.com/x360-io/x360/pkg/protocol"
)

// retrievalToolName identifies the retrieve tool in trace node names.
// Matching is exact or case-insensitive substring, since runtimes decorate
// node names differently ("retrieve", "Tool: retrieve", ...).
const retrievalToolName = "retrieve"

// maxDepth bounds the tree walk. The trace shape is produced by an external
// runtime, so the depth cannot be trusted.
const maxDepth = 64

// Metadata keys emitted by the knowledge base in its record output.
const (
	metaSourceURI    = "x-amz-bedrock-kb-source-uri"
	metaChunkID      = "x-amz-bedrock-kb-chunk-id"
	metaDataSourceID = "x-amz-bedrock-kb-data-source-id"
)

// Resolve walks the trace pre-order, left-to-right, and returns the
// citations parsed from the FIRST retrieve invocation that carries output.
// It returns nil — never an empty slice — when the tool was not used, so
// callers can distinguish "no citations" from "not applicable".
//
// Only the first invocation is reported even when a hybrid query triggered
// several; later evidence is dropped.
func Resolve(trace *protocol.TraceNode) []protocol.Citation {
	if trace == nil {
		return nil
	}
	return walk(trace, 0)
}

func walk(n *protocol.TraceNode, depth int) []protocol.Citation {
	if n == nil || depth > maxDepth {
		return nil
	}

	if nameMatches(n.Name) {
		if cites := parseRecords(n.Text()); len(cites) > 0 {
			return cites
		}
		// Matched but no usable output: keep searching deeper, then siblings.
	}

	for _, child := range n.Children {
		if cites := walk(child, depth+1); len(cites) > 0 {
			return cites
		}
	}
	return nil
}

func nameMatches(name string) bool {
	if name == retrievalToolName {
		return true
	}
	return strings.Contains(strings.ToLower(name), retrievalToolName)
}

// parseRecords parses the retrieve tool's formatted text output. Records
// start at a "Score: " line, carry a "Document ID: " line, and optionally a
// "Metadata: " line with a Python-literal-like dict. A malformed metadata
// line loses only the optional fields, not the record. Records without a
// document ID or with a negative score never make it into the result.
func parseRecords(text string) []protocol.Citation {
	if text == "" {
		return nil
	}

	var (
		out     []protocol.Citation
		current *protocol.Citation
	)
	flush := func() {
		if current != nil && current.DocumentID != "" && current.Score >= 0 {
			out = append(out, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Score: "):
			flush()
			score, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, "Score: ")), 64)
			if err != nil {
				continue // not a record start after all
			}
			current = &protocol.Citation{Score: score}

		case strings.HasPrefix(line, "Document ID: "):
			if current != nil {
				current.DocumentID = strings.TrimSpace(strings.TrimPrefix(line, "Document ID: "))
			}

		case strings.HasPrefix(line, "Metadata: "):
			if current != nil {
				meta := parseMetadata(strings.TrimPrefix(line, "Metadata: "))
				current.SourceURI = meta[metaSourceURI]
				current.ChunkID = meta[metaChunkID]
				current.DataSourceID = meta[metaDataSourceID]
			}
		}
	}
	flush()
	return out
}

// parseMetadata reads a flat Python-literal-like dict rendering such as
// {'x-amz-bedrock-kb-source-uri': 's3://docs/sla.md', 'page': 2}. Nested
// values are tolerated but ignored. Malformed input yields an empty map —
// partial citation data beats none.
func parseMetadata(s string) map[string]string {
	out := map[string]string{}
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return out
	}
	for _, pair := range splitTopLevel(s[1 : len(s)-1]) {
		k, v, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		key := unquote(strings.TrimSpace(k))
		val := unquote(strings.TrimSpace(v))
		if key != "" {
			out[key] = val
		}
	}
	return out
}

// splitTopLevel splits on commas outside quotes and nested braces/brackets.
func splitTopLevel(s string) []string {
	var (
		parts   []string
		start   int
		depth   int
		inQuote byte
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inQuote != 0 {
			if c == inQuote {
				inQuote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			inQuote = c
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if start < len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
