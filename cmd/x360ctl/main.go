package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/x360-io/x360/internal/config"
	"github.com/x360-io/x360/pkg/protocol"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "health":
		cmdHealth()
	case "briefing":
		if len(os.Args) >= 3 && os.Args[2] == "latest" {
			cmdBriefingLatest()
		} else {
			cmdBriefing()
		}
	case "ask":
		cmdChat(protocol.ModeAsk, os.Args[2:])
	case "do":
		cmdChat(protocol.ModeDo, os.Args[2:])
	case "data":
		cmdData()
	case "kb":
		if len(os.Args) < 4 || os.Args[2] != "add" {
			fmt.Fprintln(os.Stderr, "usage: x360ctl kb add <url>")
			os.Exit(1)
		}
		cmdKBAdd(os.Args[3])
	case "logs":
		cmdLogs(os.Args[2:])
	case "config":
		if len(os.Args) < 4 || os.Args[2] != "validate" {
			fmt.Fprintln(os.Stderr, "usage: x360ctl config validate <path>")
			os.Exit(1)
		}
		cmdConfigValidate(os.Args[3])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// --- commands ---

func cmdHealth() {
	body, err := apiGet("/api/v1/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(body))
}

func cmdBriefing() {
	body, err := apiPost("/api/v1/briefing", map[string]any{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	printBriefing(body)
}

func cmdBriefingLatest() {
	body, err := apiGet("/api/v1/briefing/latest")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	var wrapped struct {
		Briefing    json.RawMessage `json:"briefing"`
		GeneratedAt int64           `json:"generatedAt"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		fmt.Println(prettyJSON(body))
		return
	}
	fmt.Printf("Generated: %s\n\n", time.UnixMilli(wrapped.GeneratedAt).Format(time.RFC3339))
	printBriefing(wrapped.Briefing)
}

func printBriefing(body []byte) {
	var b protocol.Briefing
	if err := json.Unmarshal(body, &b); err != nil {
		fmt.Println(prettyJSON(body))
		return
	}
	fmt.Println(b.Summary)
	for _, item := range b.Items {
		fmt.Printf("\n[%s/%s] %s\n  %s\n", item.Severity, item.Type, item.Title, item.Description)
		if len(item.RelatedTicketIDs) > 0 {
			fmt.Printf("  tickets: %s\n", strings.Join(item.RelatedTicketIDs, ", "))
		}
		if item.SuggestedAction != "" {
			fmt.Printf("  suggested: %s\n", item.SuggestedAction)
		}
	}
}

// cmdChat sends one message, or runs a REPL when no message is given.
// History is kept client-side; the daemon is stateless per request.
func cmdChat(mode protocol.Mode, args []string) {
	fs := flag.NewFlagSet(strings.ToLower(string(mode)), flag.ExitOnError)
	message := fs.String("m", "", "Single message (omit for interactive)")
	fs.Parse(args)

	var history []protocol.ConversationTurn
	send := func(text string) {
		body, err := apiPost("/api/v1/chat", map[string]any{
			"message": text,
			"mode":    mode,
			"history": history,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
		var resp struct {
			Response  string              `json:"response"`
			Timestamp int64               `json:"timestamp"`
			Citations []protocol.Citation `json:"citations"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			fmt.Println(string(body))
			return
		}
		fmt.Println(resp.Response)
		for _, c := range resp.Citations {
			fmt.Printf("  [%.2f] %s %s\n", c.Score, c.DocumentID, c.SourceURI)
		}
		history = append(history,
			protocol.ConversationTurn{Role: "user", Content: text, Timestamp: time.Now().UnixMilli()},
			protocol.ConversationTurn{Role: "agent", Content: resp.Response, Timestamp: resp.Timestamp, IsAction: mode == protocol.ModeDo},
		)
	}

	if *message != "" {
		send(*message)
		return
	}

	fmt.Printf("x360ctl %s mode (type 'quit' to exit)\n\n", mode)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		send(line)
		fmt.Println()
	}
}

func cmdData() {
	body, err := apiGet("/api/v1/data")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	var tickets []protocol.Ticket
	if err := json.Unmarshal(body, &tickets); err != nil {
		fmt.Println(prettyJSON(body))
		return
	}
	for _, t := range tickets {
		fmt.Printf("%-10s %-12s %-10s %-8s %s\n", t.ID, t.Source, t.Status, t.Priority, t.Title)
	}
}

func cmdKBAdd(url string) {
	body, err := apiPost("/api/v1/kb/documents", map[string]string{"url": url})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(body))
}

func cmdLogs(args []string) {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	level := fs.String("level", "", "Minimum level (info|warn|error)")
	limit := fs.Int("limit", 100, "Max entries")
	fs.Parse(args)

	query := fmt.Sprintf("?limit=%d", *limit)
	if *level != "" {
		query += "&level=" + *level
	}
	body, err := apiGet("/api/v1/logs" + query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(body))
}

func cmdConfigValidate(path string) {
	_, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("config is valid")
}

// --- helpers ---

func apiGet(path string) ([]byte, error) {
	return apiDo("GET", path, nil)
}

func apiPost(path string, payload any) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return apiDo("POST", path, bytes.NewReader(buf))
}

func apiDo(method, path string, body io.Reader) ([]byte, error) {
	base := envOr("X360_API_URL", "http://localhost:8080")
	req, err := http.NewRequest(method, base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if key := os.Getenv("X360_API_KEY"); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}

func prettyJSON(data []byte) string {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	out, _ := json.MarshalIndent(v, "", "  ")
	return string(out)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printUsage() {
	fmt.Println("x360ctl — operations assistant CLI")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  health               Check daemon health")
	fmt.Println("  briefing             Generate a briefing from the stored snapshot")
	fmt.Println("  briefing latest      Show the cached briefing")
	fmt.Println("  ask [-m msg]         ASK mode chat (interactive without -m)")
	fmt.Println("  do [-m msg]          DO mode command execution")
	fmt.Println("  data                 Show the current ticket snapshot")
	fmt.Println("  kb add <url>         Ingest a documentation page")
	fmt.Println("  logs                 Show daemon logs (--level, --limit)")
	fmt.Println("  config validate <p>  Validate config file")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  X360_API_URL  Daemon URL (default: http://localhost:8080)")
	fmt.Println("  X360_API_KEY  API key for authentication")
}
