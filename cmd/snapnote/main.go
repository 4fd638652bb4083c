// Package main is the entry point for the snapNote TUI application.
// It initializes configuration, services, and runs the Bubble Tea program.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/snapnote/snapnote-tui/internal/app"
	"github.com/snapnote/snapnote-tui/internal/config"
	"github.com/snapnote/snapnote-tui/internal/services"
	"github.com/snapnote/snapnote-tui/internal/ui/tabs/extract"
	"github.com/snapnote/snapnote-tui/internal/ui/tabs/history"
	"github.com/snapnote/snapnote-tui/internal/ui/tabs/info"
	"github.com/snapnote/snapnote-tui/internal/version"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Starts the session watcher, the quota tracker, and the history database.
	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	model := app.NewModel(svcManager)

	state := model.GetState()
	tabs := []app.Tab{
		extract.New(state, svcManager, cfg), // Tab 0: Extract - image to text
		history.New(state, svcManager),      // Tab 1: History - past extractions
		info.New(state, cfg),                // Tab 2: Info - session and configuration
	}
	model.SetTabs(tabs)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`snapNote - Extract text from images in your terminal

Usage:
  snapnote [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-3             Switch between tabs (Extract, History, Info)
  Tab/Shift+Tab   Navigate between tabs
  o               Open an image
  Enter           Extract text from the selected image
  c               Copy extracted text
  s               Save extracted text to a file
  a               Manage your personal API key
  r               Refresh usage stats
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  API_BASE_URL    Backend base URL (default: http://127.0.0.1:5000)
  SESSION_PATH    Session file written by the sign-in helper
  DATABASE_PATH   SQLite history database path
  DOWNLOAD_DIR    Directory for saved transcripts
  REQUEST_TIMEOUT HTTP timeout (default: 60s)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/snapnote/.env
  - ~/.snapnote/.env`)
}
