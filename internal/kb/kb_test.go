package kb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	writeDoc(t, dir, "sla-policy.md", "SLA breach escalation procedure.\n\nWhen a ticket passes its due date, escalate to the on-call manager and page the customer success lead.")
	writeDoc(t, dir, "conflicts.md", "Resolving data conflicts between ticketing systems.\n\nWhen the same ticket ID shows different statuses, treat the most recently updated source as authoritative.")
	writeDoc(t, dir, "ignored.json", `{"not": "loaded"}`)

	s := New(dir, WithMinScore(0.3), WithMaxResults(3))
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLoadSkipsNonDocs(t *testing.T) {
	s := newTestStore(t)
	if s.Len() != 2 {
		t.Errorf("documents = %d, want 2 (.json skipped)", s.Len())
	}
}

func TestLoadMissingDirIsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope"))
	if err := s.Load(); err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("documents = %d, want 0", s.Len())
	}
}

func TestSearchRanksRelevantChunk(t *testing.T) {
	s := newTestStore(t)

	hits := s.Search("how do I escalate an SLA breach")
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	if hits[0].Document.ID != "sla-policy" {
		t.Errorf("top hit = %s, want sla-policy", hits[0].Document.ID)
	}
	if hits[0].Score < 0.3 || hits[0].Score > 1.0 {
		t.Errorf("score = %f, want within (0.3, 1.0]", hits[0].Score)
	}
}

func TestSearchNoMatch(t *testing.T) {
	s := newTestStore(t)
	if hits := s.Search("quantum blockchain kubernetes"); len(hits) != 0 {
		t.Errorf("hits = %v, want none", hits)
	}
	if hits := s.Search(""); hits != nil {
		t.Errorf("empty query should return nil, got %v", hits)
	}
}

func TestSearchDeterministicOrder(t *testing.T) {
	s := newTestStore(t)
	first := s.Search("ticket")
	for i := 0; i < 5; i++ {
		again := s.Search("ticket")
		if len(again) != len(first) {
			t.Fatal("result count changed between calls")
		}
		for j := range again {
			if again[j].Chunk.ID != first[j].Chunk.ID {
				t.Fatalf("result order changed at %d", j)
			}
		}
	}
}

func TestFormatResultsRoundTripsRecordFormat(t *testing.T) {
	s := newTestStore(t)
	hits := s.Search("escalate SLA breach due date")
	out := FormatResults(hits)

	if !strings.Contains(out, "Score: ") {
		t.Error("missing Score line")
	}
	if !strings.Contains(out, "Document ID: sla-policy") {
		t.Errorf("missing Document ID line: %s", out)
	}
	if !strings.Contains(out, "'x-amz-bedrock-kb-source-uri': 'file://sla-policy.md'") {
		t.Errorf("missing metadata rendering: %s", out)
	}
}

func TestFormatResultsEmpty(t *testing.T) {
	if out := FormatResults(nil); !strings.Contains(out, "No relevant passages") {
		t.Errorf("out = %q", out)
	}
}

func TestBuildDocumentChunking(t *testing.T) {
	big := strings.Repeat("alpha beta gamma. ", 200) // > maxChunkSize once doubled
	doc := buildDocument("big.md", big+"\n\n"+big)
	if len(doc.Chunks) < 2 {
		t.Errorf("chunks = %d, want split", len(doc.Chunks))
	}
	for i, c := range doc.Chunks {
		if c.ID == "" {
			t.Errorf("chunk %d has empty ID", i)
		}
	}
}
