// Package kb is the local knowledge base backing the retrieve tool.
// Documents are plain markdown/text files under a docs directory, split
// into chunks and scored by term overlap. Search output is rendered in the
// same line-oriented record format the citation resolver parses.
package kb

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"
)

const (
	defaultMinScore   = 0.4
	defaultMaxResults = 5
	maxChunkSize      = 2000 // characters per chunk
)

// Chunk is one scored unit of a document.
type Chunk struct {
	ID   string
	Text string
}

// Document is one knowledge base entry.
type Document struct {
	ID           string
	Title        string
	SourceURI    string
	DataSourceID string
	Chunks       []Chunk
}

// Result is one search hit.
type Result struct {
	Score    float64
	Document *Document
	Chunk    *Chunk
}

// Store holds the loaded knowledge base. Reads are concurrent; documents
// change only via Load and Add.
type Store struct {
	mu         sync.RWMutex
	dir        string
	docs       []*Document
	minScore   float64
	maxResults int
	logger     *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithMinScore sets the minimum relevance score for search hits.
func WithMinScore(s float64) Option {
	return func(st *Store) { st.minScore = s }
}

// WithMaxResults caps the number of search hits returned.
func WithMaxResults(n int) Option {
	return func(st *Store) { st.maxResults = n }
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(st *Store) { st.logger = l }
}

// New creates a Store over the given docs directory.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:        dir,
		minScore:   defaultMinScore,
		maxResults: defaultMaxResults,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load scans the docs directory for .md and .txt files. A missing
// directory is not an error — the knowledge base is simply empty.
func (s *Store) Load() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("knowledge base directory missing, starting empty", "dir", s.dir)
			return nil
		}
		return fmt.Errorf("kb: read dir %s: %w", s.dir, err)
	}

	var docs []*Document
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".md" && ext != ".txt" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			s.logger.Warn("skipping unreadable document", "file", e.Name(), "error", err)
			continue
		}
		docs = append(docs, buildDocument(e.Name(), string(data)))
	}

	s.mu.Lock()
	s.docs = docs
	s.mu.Unlock()

	s.logger.Info("knowledge base loaded", "dir", s.dir, "documents", len(docs))
	return nil
}

// Add inserts an in-memory document (used by URL ingestion).
func (s *Store) Add(doc *Document) {
	s.mu.Lock()
	s.docs = append(s.docs, doc)
	s.mu.Unlock()
}

// Len returns the number of loaded documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Search scores every chunk against the query and returns hits above the
// minimum score, best first, capped at maxResults. Ties break by document
// then chunk ID so results are stable.
func (s *Store) Search(query string) []Result {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []Result
	for _, doc := range s.docs {
		for i := range doc.Chunks {
			chunk := &doc.Chunks[i]
			score := overlapScore(terms, chunk.Text)
			if score >= s.minScore {
				hits = append(hits, Result{Score: score, Document: doc, Chunk: chunk})
			}
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Document.ID != hits[j].Document.ID {
			return hits[i].Document.ID < hits[j].Document.ID
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})

	if len(hits) > s.maxResults {
		hits = hits[:s.maxResults]
	}
	return hits
}

// FormatResults renders hits in the knowledge base record format:
// a "Score: " line starting each record, then "Document ID: " and a
// "Metadata: " line with a dict rendering of the optional fields.
func FormatResults(hits []Result) string {
	if len(hits) == 0 {
		return "No relevant passages found."
	}

	var b strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&b, "Score: %.2f\n", h.Score)
		fmt.Fprintf(&b, "Document ID: %s\n", h.Document.ID)
		fmt.Fprintf(&b, "Metadata: {'x-amz-bedrock-kb-source-uri': '%s', 'x-amz-bedrock-kb-chunk-id': '%s', 'x-amz-bedrock-kb-data-source-id': '%s'}\n",
			h.Document.SourceURI, h.Chunk.ID, h.Document.DataSourceID)
		b.WriteString(h.Chunk.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// buildDocument splits file content into paragraph chunks.
func buildDocument(name, content string) *Document {
	id := strings.TrimSuffix(name, filepath.Ext(name))
	doc := &Document{
		ID:           id,
		Title:        id,
		SourceURI:    "file://" + name,
		DataSourceID: "local-docs",
	}

	var (
		buf   strings.Builder
		index int
	)
	flush := func() {
		text := strings.TrimSpace(buf.String())
		buf.Reset()
		if text == "" {
			return
		}
		doc.Chunks = append(doc.Chunks, Chunk{
			ID:   fmt.Sprintf("%s-%d", id, index),
			Text: text,
		})
		index++
	}

	for _, para := range strings.Split(content, "\n\n") {
		if buf.Len()+len(para) > maxChunkSize {
			flush()
		}
		buf.WriteString(para)
		buf.WriteString("\n\n")
	}
	flush()
	return doc
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-'
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 2 { // drop stopword-sized tokens
			out = append(out, f)
		}
	}
	return out
}

// overlapScore is the fraction of query terms present in the chunk.
func overlapScore(terms []string, text string) float64 {
	lower := strings.ToLower(text)
	matched := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
