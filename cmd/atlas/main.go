package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/tomaszwi66/ollama-desktop-agent/internal/agent"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/gateway"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/governance"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/observability"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/store"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/tools"
	"github.com/tomaszwi66/ollama-desktop-agent/pkg/config"
)

type notifierFunc func(chatID, text string) error

func (f notifierFunc) Send(chatID, text string) error { return f(chatID, text) }

func main() {
	configPath := flag.String("config", "config.json", "path to config file (json or yaml)")
	modelName := flag.String("model", "", "override the configured model")
	oneTask := flag.String("task", "", "run a single task and exit")
	flag.Parse()

	interactive := *oneTask == ""
	if interactive {
		observability.PrintBanner()
		observability.InitializeTerminal()

		// Route all log output through the terminal mutex so it never
		// interrupts the dashboard's cursor save/restore sequence.
		log.SetOutput(observability.NewTermWriter())
	}

	cfg := config.LoadConfig(*configPath)
	ws := tools.NewWorkspace(cfg.App.Workspace)

	journal, err := store.NewJournal(cfg.Memory.Path)
	if err != nil {
		log.Fatal(err)
	}

	// Initialize Tools
	registry := tools.NewRegistry()
	registry.Policy = governance.NewSafetyPolicy()

	searchTool, err := tools.NewSearchTool()
	if err != nil {
		log.Printf("Warning: Failed to initialize search tool: %v", err)
	} else {
		registry.Register(searchTool)
	}

	registry.Register(tools.NewFilesystemTool(ws))
	registry.Register(tools.NewSpreadsheetTool(ws))
	registry.Register(tools.NewChartTool(ws))
	registry.Register(tools.NewDocumentTool(ws))
	registry.Register(tools.NewBrowserTool(ws))
	registry.Register(tools.NewScraperTool())
	registry.Register(tools.NewShellTool(ws))
	registry.Register(tools.NewSystemTool(ws))
	registry.Register(tools.NewCronTool(journal))

	logger := observability.NewLogger()

	// Initialize LLM (using default enabled provider)
	pName, pCfg := cfg.GetDefaultProvider()
	if pName == "" {
		log.Fatal("No enabled provider found in config")
	}
	if *modelName != "" {
		pCfg.Model = *modelName
	}

	var llm llms.Model
	switch pName {
	case "openai", "openrouter":
		opts := []openai.Option{
			openai.WithToken(pCfg.APIKey),
			openai.WithModel(pCfg.Model),
		}
		if pCfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(pCfg.BaseURL))
		}
		llm, err = openai.New(opts...)
	default:
		opts := []ollama.Option{
			ollama.WithModel(pCfg.Model),
			ollama.WithRunnerNumCtx(2048),
		}
		if pCfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(pCfg.BaseURL))
		}
		llm, err = ollama.New(opts...)
	}
	if err != nil {
		log.Fatal(err)
	}

	oracle := agent.NewOracle(llm, agent.BuildSystemPrompt(ws, registry))
	oracle.Logger = logger

	engine := agent.NewEngine(registry, oracle)
	engine.Journal = journal
	engine.Logger = logger

	a := agent.New(oracle, engine, journal)
	console := gateway.NewConsoleGateway(a, registry, journal)

	cleanup := func() {
		registry.Close()
		if err := journal.Close(); err != nil {
			log.Printf("Error closing journal: %v", err)
		}
	}

	if !interactive {
		engine.Progress = func(line string) { fmt.Println(line) }
		console.RunOnce(*oneTask)
		cleanup()
		return
	}

	tw := observability.NewTermWriter()
	console.Out = tw
	engine.Progress = func(line string) { fmt.Fprintln(tw, line) }

	// Connection test
	log.Println("Connecting to Ollama…")
	probeCtx, cancelProbe := context.WithTimeout(context.Background(), 2*time.Minute)
	_, err = oracle.Chat(probeCtx, "Reply with one word: OK", agent.ModeChat)
	cancelProbe()
	if err != nil {
		observability.CleanupTerminal()
		fmt.Printf("⚠️ %v\n", err)
		fmt.Println("Make sure Ollama is running:  ollama serve")
		cleanup()
		os.Exit(1)
	}
	log.Println("✅ Ollama connected")
	oracle.Reset()

	// Optional remote gateways
	var tg *gateway.TelegramGateway
	if tgCfg, ok := cfg.GetTelegramConfig(); ok {
		tg, err = gateway.NewTelegramGateway(tgCfg.Token, a)
		if err != nil {
			log.Printf("Warning: Failed to start telegram gateway: %v", err)
			tg = nil
		}
	}
	var dc *gateway.DiscordGateway
	if dcCfg, ok := cfg.GetDiscordConfig(); ok {
		dc, err = gateway.NewDiscordGateway(dcCfg.Token, a)
		if err != nil {
			log.Printf("Warning: Failed to start discord gateway: %v", err)
			dc = nil
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Scheduler notifications go back to the surface the job came from.
	// Console jobs print locally; everything else goes to the remote gateway.
	var remote agent.Notifier
	switch {
	case tg != nil:
		remote = tg
	case dc != nil:
		remote = dc
	}
	notify := agent.Notifier(console)
	if remote != nil {
		notify = notifierFunc(func(chatID, text string) error {
			if chatID == gateway.ConsoleChatID {
				return console.Send(chatID, text)
			}
			return remote.Send(chatID, text)
		})
	}

	scheduler := agent.NewScheduler(a, journal, notify)
	go scheduler.Start(ctx)

	// Start Live Resource Dashboard (1-second updates)
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.PrintLiveStatus()
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.Heartbeat()
				logger.LogHeartbeat()
			}
		}
	}()

	if tg != nil {
		go func() {
			if err := tg.Start(); err != nil {
				log.Printf("\033[91m[ FAIL ] TELEGRAM GATEWAY ERROR: %v\033[0m", err)
			}
		}()
	}
	if dc != nil {
		go func() {
			if err := dc.Start(); err != nil {
				log.Printf("\033[91m[ FAIL ] DISCORD GATEWAY ERROR: %v\033[0m", err)
			}
		}()
	}

	// The console REPL owns the foreground; leaving it shuts everything down.
	go func() {
		if err := console.Start(); err != nil {
			log.Printf("Console error: %v", err)
		}
		stop()
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	console.Stop()
	if tg != nil {
		tg.Stop()
	}
	if dc != nil {
		dc.Stop()
	}

	// Reset terminal aesthetics
	observability.CleanupTerminal()
	cleanup()

	// Give a short time for final logs/syncs
	time.Sleep(500 * time.Millisecond)
	log.Println("\033[95m[ EXIT ] ATLAS DE-INITIALIZED. GOODBYE.\033[0m")
}
