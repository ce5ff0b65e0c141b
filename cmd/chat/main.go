package main

import (
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"ragchat-client/internal/config"
	"ragchat-client/internal/pkg/logger"
	"ragchat-client/internal/repository/memory"
	"ragchat-client/internal/service"
	"ragchat-client/internal/tui"
	"ragchat-client/pkg/chatclient"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Logger (file only: the TUI owns the terminal)
	appLogger := logger.NewFileOnlyLogger(cfg.Log.FilePath)
	defer appLogger.Sync()

	// 3. Wire Dependencies
	client := chatclient.NewChatClient(
		cfg.App.APIBaseURL,
		chatclient.WithTimeout(cfg.App.RequestTimeout),
		chatclient.WithLogger(appLogger),
	)
	transcripts := memory.NewTranscriptRepository()
	sessions := service.NewSessionService(client, transcripts, appLogger)

	// 4. Run the chat screen
	program := tea.NewProgram(tui.NewModel(sessions, cfg.UI), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Fatalf("chat client exited with error: %v", err)
	}
}
