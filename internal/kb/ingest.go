package kb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	readability "codeberg.org/readeck/go-readability/v2"
)

const (
	ingestTimeout = 30 * time.Second
	maxIngestSize = 200 * 1024
)

// IngestURL fetches a documentation page, extracts the readable text, and
// adds it to the knowledge base. HTML goes through readability; anything
// else is taken as plain text.
func (s *Store) IngestURL(ctx context.Context, rawURL string) (*Document, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("kb: invalid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("kb: ingest: %w", err)
	}
	req.Header.Set("User-Agent", "x360-kb/1.0")

	client := &http.Client{Timeout: ingestTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kb: ingest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kb: ingest: HTTP %d", resp.StatusCode)
	}

	title := path.Base(parsedURL.Path)
	var text string

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		article, err := readability.FromReader(resp.Body, parsedURL)
		if err != nil {
			return nil, fmt.Errorf("kb: ingest: parse: %w", err)
		}
		var buf bytes.Buffer
		if err := article.RenderText(&buf); err != nil {
			return nil, fmt.Errorf("kb: ingest: render: %w", err)
		}
		text = buf.String()
		if article.Title() != "" {
			title = article.Title()
		}
	} else {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxIngestSize))
		if err != nil {
			return nil, fmt.Errorf("kb: ingest: read: %w", err)
		}
		text = string(body)
	}

	if len(text) > maxIngestSize {
		text = text[:maxIngestSize]
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("kb: ingest: no readable content at %s", rawURL)
	}

	doc := buildDocument(slugify(title)+".md", text)
	doc.Title = title
	doc.SourceURI = rawURL
	doc.DataSourceID = "web-ingest"
	s.Add(doc)

	s.logger.Info("document ingested", "url", rawURL, "doc", doc.ID, "chunks", len(doc.Chunks))
	return doc, nil
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '.':
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "document"
	}
	return out
}
