// cmd/appointed/main.go
//
// Entry point for the appointed TUI. Flow:
// 1. Load .env if present and resolve the user's home directory
// 2. Ensure the ~/.appointed folder exists and read the config
// 3. Wire session store, service client, and logbook into the app
// 4. Run the bubbletea program until the user quits

package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/okellen/appointed/internal/api"
	"github.com/okellen/appointed/internal/config"
	"github.com/okellen/appointed/internal/logbook"
	"github.com/okellen/appointed/internal/session"
	"github.com/okellen/appointed/internal/tui"
)

func main() {
	// A missing .env is fine; it only exists to set APPOINTED_SERVER
	// during development.
	_ = godotenv.Load()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving home directory: %v\n", err)
		os.Exit(1)
	}

	if err := config.InitAppDir(homeDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing %s directory: %v\n", config.AppDir, err)
		os.Exit(1)
	}

	cfg, err := config.NewConfig(homeDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	sessions, err := session.New(cfg.StateDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading session state: %v\n", err)
		os.Exit(1)
	}

	book, err := logbook.New(filepath.Join(cfg.LogsDir(), "session.log"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening logbook: %v\n", err)
		os.Exit(1)
	}
	book.Info("Session opened · server %s", cfg.ServerURL())

	client := api.NewClient(cfg.ServerURL(), sessions, cfg.RequestTimeout())

	p := tea.NewProgram(
		tui.NewApp(cfg, sessions, client, book),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
