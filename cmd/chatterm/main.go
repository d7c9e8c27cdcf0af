package main

import (
	"flag"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mrocha/chatterm/internal/api"
	"github.com/mrocha/chatterm/internal/config"
	"github.com/mrocha/chatterm/internal/logger"
	"github.com/mrocha/chatterm/internal/session"
	"github.com/mrocha/chatterm/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	serverURL := flag.String("server", "", "Backend base URL (e.g. http://localhost:8080)")
	sessionFile := flag.String("session-file", "", "Where to persist the login session")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Override(*serverURL, *sessionFile, *logLevel); err != nil {
		log.Fatalf("Failed to apply flags: %v", err)
	}

	logger.Init(cfg.LogLevel)

	client := api.New(cfg.ServerURL)
	sessions := session.NewStore(cfg.SessionFile)
	identity := sessions.Load()

	model := ui.New(cfg, client, sessions, identity)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Fatalf("Failed to run UI: %v", err)
	}
}
