package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	Port        string
	DatabaseURL string
	Version     string
	LogLevel    string

	// IMAP mailbox the order emails arrive in
	IMAPServer    string
	IMAPPort      int
	EmailUser     string
	EmailPassword string
	IMAPMailbox   string

	// OpenAI extraction settings
	OpenAIKey     string
	OpenAIModel   string
	OpenAITimeout int // seconds

	// Trello list the order lines are pushed to
	TrelloAPIKey string
	TrelloToken  string
	TrelloListID string
}

// Load initializes and returns application configuration
func Load() *Config {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Version:     getEnv("VERSION", "1.0.0"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		IMAPServer:    os.Getenv("IMAP_SERVER"),
		IMAPPort:      getEnvInt("IMAP_PORT", 993),
		EmailUser:     os.Getenv("EMAIL_USER"),
		EmailPassword: os.Getenv("EMAIL_PASSWORD"),
		IMAPMailbox:   getEnv("IMAP_MAILBOX", "INBOX"),

		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAITimeout: getEnvInt("OPENAI_TIMEOUT", 60), // Default 60 seconds

		TrelloAPIKey: os.Getenv("TRELLO_API_KEY"),
		TrelloToken:  os.Getenv("TRELLO_TOKEN"),
		TrelloListID: os.Getenv("TRELLO_LIST_ID"),
	}

	return config
}

// IMAPAddr returns the host:port address of the configured IMAP server
func (c *Config) IMAPAddr() string {
	return c.IMAPServer + ":" + strconv.Itoa(c.IMAPPort)
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as integer with a default fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// SetupLogger configures zerolog with JSON output and single-line format
func (c *Config) SetupLogger() zerolog.Logger {
	// Configure zerolog to output JSON without newlines
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Create logger with JSON output to stdout
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "orca").
		Str("version", c.Version).
		Logger()

	// Set log level based on configuration
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	return logger
}
