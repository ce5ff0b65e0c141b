package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App Backend
	UI  UIConfig
	Log LogConfig
}

type Backend struct {
	// APIBaseURL is the deployed chat API (API Gateway stage or the local
	// stub server).
	APIBaseURL string
	// RequestTimeout bounds each remote call. The default of 30s is part
	// of the client contract; override only for local testing.
	RequestTimeout time.Duration
}

type UIConfig struct {
	ChatbotName        string
	ChatbotDescription string
	Greeting           string
	PrimaryColor       string
	SecondaryColor     string
	// SchoolFilters are the selectable category filters sent as
	// selectedSchool on chat requests. Empty means no filter UI.
	SchoolFilters []string
}

type LogConfig struct {
	FilePath    string
	Environment string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: Backend{
			APIBaseURL:     getEnv("CHAT_API_BASE_URL", "http://localhost:3000"),
			RequestTimeout: getEnvAsDuration("CHAT_REQUEST_TIMEOUT", 30*time.Second),
		},
		UI: UIConfig{
			ChatbotName:        getEnv("CHATBOT_NAME", "My AI Assistant"),
			ChatbotDescription: getEnv("CHATBOT_DESCRIPTION", "Get help with information and questions"),
			Greeting:           getEnv("GREETING_RESPONSE", "Hello! How can I help you today?"),
			PrimaryColor:       getEnv("UI_PRIMARY_COLOR", "#1A2F71"),
			SecondaryColor:     getEnv("UI_SECONDARY_COLOR", "#48AEB2"),
			SchoolFilters:      getEnvAsList("SCHOOL_FILTERS", nil),
		},
		Log: LogConfig{
			FilePath:    getEnv("LOG_FILE_PATH", "logs/ragchat.log"),
			Environment: getEnv("GO_ENV", "development"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Log.Environment, "production")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	// Bare numbers are taken as seconds, matching the backend config.
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	parts := strings.Split(strValue, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
