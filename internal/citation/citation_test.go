package citation

import (
	"testing"

	"github.com/x360-io/x360/pkg/protocol"
)

func traceWithText(name, text string) *protocol.TraceNode {
	n := &protocol.TraceNode{Name: name}
	n.SetText(text)
	return n
}

func TestResolveSingleRecord(t *testing.T) {
	trace := traceWithText("retrieve", "Score: 0.82\nDocument ID: doc-1\nMetadata: {'x-amz-bedrock-kb-source-uri': 'uri-1'}\n")

	cites := Resolve(trace)
	if len(cites) != 1 {
		t.Fatalf("citations = %d, want 1", len(cites))
	}
	c := cites[0]
	if c.Score != 0.82 || c.DocumentID != "doc-1" || c.SourceURI != "uri-1" {
		t.Errorf("citation = %+v", c)
	}
}

func TestResolveMultipleRecords(t *testing.T) {
	text := "Score: 0.91\nDocument ID: doc-a\nMetadata: {'x-amz-bedrock-kb-source-uri': 's3://kb/sla.md', 'x-amz-bedrock-kb-chunk-id': 'c-7', 'x-amz-bedrock-kb-data-source-id': 'ds-1'}\n" +
		"Score: 0.45\nDocument ID: doc-b\n"
	cites := Resolve(traceWithText("retrieve", text))
	if len(cites) != 2 {
		t.Fatalf("citations = %d, want 2", len(cites))
	}
	if cites[0].ChunkID != "c-7" || cites[0].DataSourceID != "ds-1" {
		t.Errorf("first = %+v", cites[0])
	}
	if cites[1].SourceURI != "" {
		t.Errorf("second should have no metadata fields, got %+v", cites[1])
	}
}

func TestResolveMalformedMetadataKeepsRecord(t *testing.T) {
	text := "Score: 0.5\nDocument ID: doc-x\nMetadata: not-a-dict\n"
	cites := Resolve(traceWithText("retrieve", text))
	if len(cites) != 1 {
		t.Fatalf("citations = %d, want 1", len(cites))
	}
	if cites[0].DocumentID != "doc-x" || cites[0].SourceURI != "" {
		t.Errorf("citation = %+v", cites[0])
	}
}

func TestResolveNilCases(t *testing.T) {
	if Resolve(nil) != nil {
		t.Error("nil trace should resolve to nil")
	}

	// No node matches the tool name.
	trace := &protocol.TraceNode{Name: "agent"}
	trace.AddChild("query_tickets").SetText("[]")
	if got := Resolve(trace); got != nil {
		t.Errorf("expected nil for no retrieve node, got %v", got)
	}

	// Matching node with no parseable records.
	trace2 := traceWithText("retrieve", "No relevant passages found.")
	if got := Resolve(trace2); got != nil {
		t.Errorf("expected nil for zero records, got %v", got)
	}
}

func TestResolveSearchOrder(t *testing.T) {
	// Two retrieve invocations: pre-order DFS must report the first one
	// only, even when the second carries more records.
	root := &protocol.TraceNode{Name: "cycle"}
	left := root.AddChild("step")
	left.AddChild("retrieve").SetText("Score: 0.7\nDocument ID: first\n")
	root.AddChild("retrieve").SetText("Score: 0.9\nDocument ID: second-a\nScore: 0.8\nDocument ID: second-b\n")

	cites := Resolve(root)
	if len(cites) != 1 || cites[0].DocumentID != "first" {
		t.Errorf("citations = %+v, want only 'first'", cites)
	}
}

func TestResolveSkipsEmptyMatchThenFindsDeeper(t *testing.T) {
	// A matching node without output must not stop the search.
	root := &protocol.TraceNode{Name: "cycle"}
	empty := root.AddChild("retrieve")
	empty.AddChild("retrieve-inner").SetText("Score: 0.6\nDocument ID: inner\n")

	cites := Resolve(root)
	if len(cites) != 1 || cites[0].DocumentID != "inner" {
		t.Errorf("citations = %+v, want 'inner'", cites)
	}
}

func TestResolveCaseInsensitiveSubstring(t *testing.T) {
	trace := traceWithText("Tool: Retrieve (knowledge base)", "Score: 0.3\nDocument ID: d\n")
	if len(Resolve(trace)) != 1 {
		t.Error("expected substring match on decorated node name")
	}
}

func TestResolveDropsInvalidRecords(t *testing.T) {
	// Missing document ID and negative score records are dropped; the
	// remaining valid record survives.
	text := "Score: 0.9\nScore: -1.0\nDocument ID: neg\nScore: 0.4\nDocument ID: ok\n"
	cites := Resolve(traceWithText("retrieve", text))
	if len(cites) != 1 || cites[0].DocumentID != "ok" {
		t.Errorf("citations = %+v, want only 'ok'", cites)
	}
}

func TestResolveDepthBound(t *testing.T) {
	// A pathologically deep tree must not be walked past the bound.
	root := &protocol.TraceNode{Name: "root"}
	n := root
	for i := 0; i < maxDepth+10; i++ {
		n = n.AddChild("step")
	}
	n.Name = "retrieve"
	n.SetText("Score: 0.5\nDocument ID: deep\n")

	if got := Resolve(root); got != nil {
		t.Errorf("expected nil beyond depth bound, got %v", got)
	}
}

func TestParseMetadataValuesWithColons(t *testing.T) {
	meta := parseMetadata("{'x-amz-bedrock-kb-source-uri': 's3://bucket/path/doc.md', 'page': 2}")
	if meta[metaSourceURI] != "s3://bucket/path/doc.md" {
		t.Errorf("source uri = %q", meta[metaSourceURI])
	}
	if meta["page"] != "2" {
		t.Errorf("page = %q", meta["page"])
	}
}

func TestParseMetadataNestedValue(t *testing.T) {
	meta := parseMetadata("{'x-amz-bedrock-kb-chunk-id': 'c1', 'extra': {'a': 1, 'b': 2}}")
	if meta[metaChunkID] != "c1" {
		t.Errorf("chunk id = %q", meta[metaChunkID])
	}
}
