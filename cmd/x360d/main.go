package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	apiPkg "github.com/x360-io/x360/internal/api"
	"github.com/x360-io/x360/internal/config"
	"github.com/x360-io/x360/internal/dispatch"
	"github.com/x360-io/x360/internal/kb"
	"github.com/x360-io/x360/internal/logbuf"
	"github.com/x360-io/x360/internal/notify"
	"github.com/x360-io/x360/internal/provider"
	"github.com/x360-io/x360/internal/scheduler"
	"github.com/x360-io/x360/internal/snapshot"
	"github.com/x360-io/x360/pkg/protocol"
)

func main() {
	configPath := flag.String("config", "", "Path to config JSON file")
	envFile := flag.String("env-file", ".env", "Path to .env file (ignored if missing)")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	// Optional .env before the config layer reads the environment.
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logBuf := logbuf.New(2000)
	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logbuf.NewHandler(jsonHandler, logBuf))

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("x360d starting", "data_dir", cfg.Core.DataDir)

	// 1. Providers
	providers := make(map[string]provider.Provider)
	for name, pcfg := range cfg.Providers {
		switch pcfg.Type {
		case "anthropic":
			var opts []provider.AnthropicOption
			if pcfg.BaseURL != "" {
				opts = append(opts, provider.WithAnthropicBaseURL(pcfg.BaseURL))
			}
			if pcfg.Model != "" {
				opts = append(opts, provider.WithAnthropicModel(pcfg.Model))
			}
			providers[name] = provider.NewAnthropic(pcfg.APIKey, opts...)
		default: // "openai" or empty
			var opts []provider.OpenAIOption
			if pcfg.BaseURL != "" {
				opts = append(opts, provider.WithBaseURL(pcfg.BaseURL))
			}
			if pcfg.Model != "" {
				opts = append(opts, provider.WithModel(pcfg.Model))
			}
			providers[name] = provider.NewOpenAI(pcfg.APIKey, opts...)
		}
		logger.Info("provider initialized", "name", name, "type", pcfg.Type, "model", pcfg.Model)
	}
	if _, ok := providers[cfg.DefaultProviderName()]; !ok {
		logger.Error("default provider not configured", "name", cfg.DefaultProviderName())
		os.Exit(1)
	}

	// 2. Snapshot store + dataset
	os.MkdirAll(cfg.Core.DataDir, 0o755)
	dbPath := cfg.Core.DataDir + "/snapshot.db"
	store, err := snapshot.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Error("failed to open snapshot store", "path", dbPath, "error", err)
		os.Exit(1)
	}

	tickets := snapshot.DemoData()
	if cfg.Core.DatasetFile != "" {
		tickets, err = snapshot.LoadFile(cfg.Core.DatasetFile)
		if err != nil {
			logger.Error("failed to load dataset", "path", cfg.Core.DatasetFile, "error", err)
			os.Exit(1)
		}
	}
	if err := store.ReplaceAll(tickets); err != nil {
		logger.Error("failed to seed snapshot", "error", err)
		os.Exit(1)
	}
	logger.Info("snapshot loaded", "tickets", len(tickets))

	// 3. Knowledge base
	var kbOpts []kb.Option
	if cfg.KB.MinScore > 0 {
		kbOpts = append(kbOpts, kb.WithMinScore(cfg.KB.MinScore))
	}
	if cfg.KB.MaxResults > 0 {
		kbOpts = append(kbOpts, kb.WithMaxResults(cfg.KB.MaxResults))
	}
	kbOpts = append(kbOpts, kb.WithLogger(logger.With("component", "kb")))
	kbStore := kb.New(cfg.KB.Dir, kbOpts...)
	if err := kbStore.Load(); err != nil {
		logger.Error("failed to load knowledge base", "dir", cfg.KB.Dir, "error", err)
		os.Exit(1)
	}

	// 4. Notification sink (first configured wins: Slack, then Telegram)
	var notifier notify.Notifier
	if cfg.Notify.Slack != nil {
		notifier, err = notify.NewSlack(cfg.Notify.Slack.Token, cfg.Notify.Slack.DefaultChannel, logger.With("notifier", "slack"))
		if err != nil {
			logger.Error("failed to init slack notifier", "error", err)
			os.Exit(1)
		}
		logger.Info("slack notifier ready")
	} else if cfg.Notify.Telegram != nil {
		notifier, err = notify.NewTelegram(cfg.Notify.Telegram.Token, cfg.Notify.Telegram.DefaultChatID, logger.With("notifier", "telegram"))
		if err != nil {
			logger.Error("failed to init telegram notifier", "error", err)
			os.Exit(1)
		}
		logger.Info("telegram notifier ready")
	}

	// 5. Dispatcher
	dispatchOpts := []dispatch.Option{
		dispatch.WithLogger(logger.With("component", "dispatch")),
	}
	if notifier != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithNotifier(notifier))
	}
	for _, spec := range cfg.Roles {
		dispatchOpts = append(dispatchOpts, dispatch.WithSpec(spec))
	}
	disp := dispatch.New(providers, cfg.DefaultProviderName(), kbStore, store, dispatchOpts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 6. Briefing scheduler
	sched := scheduler.New(func(ctx context.Context) *protocol.Briefing {
		data, err := snapshotMaps(store)
		if err != nil {
			logger.Error("failed to read snapshot for briefing", "error", err)
			data = nil
		}
		return disp.Briefing(ctx, data)
	}, logger.With("component", "scheduler"))
	if cfg.Briefing.Schedule != "" {
		if err := sched.Schedule(cfg.Briefing.Schedule); err != nil {
			logger.Error("invalid briefing schedule", "error", err)
			os.Exit(1)
		}
	}
	go safeGo(logger, "scheduler", func() { sched.Start(ctx) })

	// 7. API server
	svc := &coreService{disp: disp, sched: sched, store: store, kb: kbStore}
	apiSrv := apiPkg.NewServer(svc, apiPkg.Config{
		Host: cfg.API.Host,
		Port: cfg.API.Port,
		Key:  cfg.API.Key,
	}, logger.With("component", "api"), logBuf)

	go safeGo(logger, "api-server", func() { apiSrv.Start(ctx) })
	logger.Info("api server started", "port", cfg.API.Port)

	// 8. Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)
	cancel()
	store.Close()
	logger.Info("x360d stopped")
}

// safeGo runs fn with panic recovery.
func safeGo(logger *slog.Logger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("goroutine panicked", "name", name, "panic", fmt.Sprintf("%v", r))
		}
	}()
	fn()
}

// coreService implements api.Service over the dispatcher, scheduler, and stores.
type coreService struct {
	disp  *dispatch.Dispatcher
	sched *scheduler.Scheduler
	store snapshot.Store
	kb    *kb.Store
}

func (s *coreService) Chat(ctx context.Context, mode protocol.Mode, message string, history []protocol.ConversationTurn, chatCtx protocol.ChatContext) (*protocol.AgentReply, error) {
	// Callers that send no context get the stored snapshot.
	if chatCtx.Data == nil {
		data, err := snapshotMaps(s.store)
		if err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
		chatCtx.Data = data
	}
	return s.disp.Chat(ctx, mode, message, history, chatCtx)
}

func (s *coreService) GenerateBriefing(ctx context.Context, data []map[string]any) *protocol.Briefing {
	if len(data) == 0 {
		// Snapshot-backed briefings refresh the cache the schedule serves.
		return s.sched.RunNow(ctx)
	}
	return s.disp.Briefing(ctx, data)
}

func (s *coreService) LatestBriefing() (*protocol.Briefing, time.Time, bool) {
	return s.sched.Latest()
}

func (s *coreService) Snapshot() ([]protocol.Ticket, error) {
	return s.store.All()
}

func (s *coreService) IngestDocument(ctx context.Context, url string) (string, error) {
	doc, err := s.kb.IngestURL(ctx, url)
	if err != nil {
		return "", err
	}
	return doc.ID, nil
}

func snapshotMaps(store snapshot.Store) ([]map[string]any, error) {
	tickets, err := store.All()
	if err != nil {
		return nil, err
	}
	data := make([]map[string]any, 0, len(tickets))
	for _, t := range tickets {
		data = append(data, t.Map())
	}
	return data, nil
}
