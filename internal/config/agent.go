package config

import (
	"strconv"
	"strings"
)

// AgentConfig holds configuration for the capture agent.
type AgentConfig struct {
	// CDP connection settings
	CDPAddress string
	CDPPort    int

	// Optional browser launch
	LaunchBrowser   bool
	BrowserStartURL string
	BrowserProfile  string
	BrowserHeadless bool

	// Control surface settings
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool

	// Capture behavior
	TabURLFilter string
	ActivePollMS int

	// Recording flag persistence
	StateFile string

	// Logging
	LogLevel string
	LogFile  string
}

// LoadAgent reads agent configuration from environment variables and an
// optional .env file.
func LoadAgent() (*AgentConfig, error) {
	loadDotEnv()

	cfg := &AgentConfig{
		CDPAddress:       getEnvOrDefault("CHROMIUM_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:          getEnvIntOrDefault("CHROMIUM_CDP_PORT", 9222),
		LaunchBrowser:    getEnvBoolOrDefault("NETCHAT_LAUNCH_BROWSER", false),
		BrowserStartURL:  getEnvOrDefault("NETCHAT_BROWSER_START_URL", ""),
		BrowserProfile:   getEnvOrDefault("NETCHAT_BROWSER_PROFILE_DIR", "browser_profile"),
		BrowserHeadless:  getEnvBoolOrDefault("NETCHAT_BROWSER_HEADLESS", false),
		BindAddr:         getEnvOrDefault("NETCHAT_AGENT_BIND_ADDR", "127.0.0.1:9400"),
		PortCandidates:   getEnvListOrDefault("NETCHAT_AGENT_PORT_CANDIDATES", []string{"127.0.0.1:9401", "127.0.0.1:9402"}),
		PortAutoFallback: getEnvBoolOrDefault("NETCHAT_AGENT_PORT_AUTO_FALLBACK", true),
		TabURLFilter:     getEnvOrDefault("NETCHAT_TAB_URL_FILTER", ""),
		ActivePollMS:     getEnvIntOrDefault("NETCHAT_ACTIVE_POLL_MS", 1000),
		StateFile:        getEnvOrDefault("NETCHAT_STATE_FILE", "netchat_state.json"),
		LogLevel:         strings.ToLower(getEnvOrDefault("NETCHAT_AGENT_LOG_LEVEL", "info")),
		LogFile:          getEnvOrDefault("NETCHAT_AGENT_LOG_FILE", "logs/agent.log"),
	}
	if cfg.ActivePollMS < 250 {
		cfg.ActivePollMS = 250
	}
	return cfg, nil
}

// CDPURL returns the CDP HTTP endpoint used by the chromedp remote allocator.
func (c *AgentConfig) CDPURL() string {
	return "http://" + c.CDPAddress + ":" + strconv.Itoa(c.CDPPort)
}
