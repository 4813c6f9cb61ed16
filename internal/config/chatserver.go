package config

import "strings"

// ChatServerConfig holds configuration for the chat backend.
type ChatServerConfig struct {
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool

	// Local model runtime
	OllamaURL      string
	Model          string
	ModelTimeoutMS int

	// Logging
	LogLevel string
	LogFile  string
}

// LoadChatServer reads chat server configuration from environment variables
// and an optional .env file.
func LoadChatServer() (*ChatServerConfig, error) {
	loadDotEnv()

	cfg := &ChatServerConfig{
		BindAddr:         getEnvOrDefault("NETCHAT_SERVER_BIND_ADDR", "127.0.0.1:9500"),
		PortCandidates:   getEnvListOrDefault("NETCHAT_SERVER_PORT_CANDIDATES", []string{"127.0.0.1:9501", "127.0.0.1:9502"}),
		PortAutoFallback: getEnvBoolOrDefault("NETCHAT_SERVER_PORT_AUTO_FALLBACK", true),
		OllamaURL:        getEnvOrDefault("NETCHAT_OLLAMA_URL", "http://127.0.0.1:11434"),
		Model:            getEnvOrDefault("NETCHAT_MODEL", "llama3.2"),
		ModelTimeoutMS:   getEnvIntOrDefault("NETCHAT_MODEL_TIMEOUT_MS", 120000),
		LogLevel:         strings.ToLower(getEnvOrDefault("NETCHAT_SERVER_LOG_LEVEL", "info")),
		LogFile:          getEnvOrDefault("NETCHAT_SERVER_LOG_FILE", "logs/chatserver.log"),
	}
	if cfg.ModelTimeoutMS < 1000 {
		cfg.ModelTimeoutMS = 1000
	}
	return cfg, nil
}

// CLIConfig holds configuration for the terminal chat client.
type CLIConfig struct {
	ControlURL string
	ChatURL    string
}

// LoadCLI reads chat client configuration from environment variables and an
// optional .env file.
func LoadCLI() (*CLIConfig, error) {
	loadDotEnv()

	return &CLIConfig{
		ControlURL: getEnvOrDefault("NETCHAT_CONTROL_URL", "ws://127.0.0.1:9400/control"),
		ChatURL:    getEnvOrDefault("NETCHAT_CHAT_URL", "http://127.0.0.1:9500/chat"),
	}, nil
}
