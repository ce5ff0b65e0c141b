package main

import (
	"log"
	"os"

	"github.com/fatih/color"

	"ragchat-client/internal/config"
	"ragchat-client/internal/pkg/logger"
	"ragchat-client/internal/stubserver"
)

func main() {
	cfg := config.Load()

	appLogger := logger.NewZapLogger(cfg.Log.FilePath, cfg.IsProduction())
	defer appLogger.Sync()

	port := os.Getenv("STUB_PORT")
	if port == "" {
		port = "3000"
	}

	color.Green("Stub chat backend listening on http://localhost:%s", port)
	color.Yellow("Endpoints: POST /chat, POST /feedback, GET /sources/:sourceId")

	srv := stubserver.New(appLogger)
	log.Fatal(srv.Listen(":" + port))
}
