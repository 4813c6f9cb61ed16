package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgnsrekt/netchat_agent/internal/api"
	"github.com/dgnsrekt/netchat_agent/internal/browser"
	"github.com/dgnsrekt/netchat_agent/internal/capture"
	"github.com/dgnsrekt/netchat_agent/internal/cdp"
	"github.com/dgnsrekt/netchat_agent/internal/config"
	"github.com/dgnsrekt/netchat_agent/internal/control"
	"github.com/dgnsrekt/netchat_agent/internal/netutil"
	"github.com/dgnsrekt/netchat_agent/internal/relay"
	"github.com/dgnsrekt/netchat_agent/internal/state"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cfg, err := config.LoadAgent()
	if err != nil {
		slog.Error("failed to load agent config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		_, _ = io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n")
		os.Exit(1)
	}

	slog.Info("agent config loaded",
		"cdp_address", cfg.CDPAddress,
		"cdp_port", cfg.CDPPort,
		"bind_addr", cfg.BindAddr,
		"tab_url_filter", cfg.TabURLFilter,
		"state_file", cfg.StateFile,
		"active_poll_ms", cfg.ActivePollMS,
		"log_level", cfg.LogLevel,
	)

	bindAddr, err := netutil.SelectBindAddr(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to select bind address", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}

	var launcher *browser.Launcher
	if cfg.LaunchBrowser {
		launcher = browser.NewLauncher(browser.Config{
			CDPAddress: cfg.CDPAddress,
			CDPPort:    cfg.CDPPort,
			StartURL:   cfg.BrowserStartURL,
			ProfileDir: cfg.BrowserProfile,
			Headless:   cfg.BrowserHeadless,
		})
		if err := launcher.Launch(context.Background()); err != nil {
			slog.Error("failed to launch browser", "error", err)
			os.Exit(1)
		}
		defer launcher.Stop()
	}

	// The flag must be loaded before any listener sees traffic, else the
	// startup window would admit or reject calls on a stale default.
	recording := state.Open(cfg.StateFile)
	slog.Info("recording flag loaded", "enabled", recording.Enabled())

	store := capture.NewStore()
	broker := relay.NewBroker()
	listener := capture.NewListener(store, recording, broker)

	cdpClient := cdp.NewClient(cfg, listener, store)
	if err := cdpClient.Connect(context.Background()); err != nil {
		slog.Error("failed to connect to browser", "error", err)
		slog.Info("Make sure Chromium is running with remote debugging enabled")
		// os.Exit skips deferred cleanup; a browser we launched ourselves
		// must not be left running.
		if launcher != nil {
			launcher.Stop()
		}
		os.Exit(1)
	}
	defer func() {
		if err := cdpClient.Close(); err != nil {
			slog.Warn("CDP close failed", "error", err)
		}
	}()

	ctrl := control.NewHandler(store, recording)
	srv := &http.Server{Addr: bindAddr, Handler: api.NewAgentServer(ctrl, broker)}

	go func() {
		slog.Info("agent listening", "addr", bindAddr, "tabs", cdpClient.GetTabCount())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("agent server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("agent shutdown failed", "error", err)
	}
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(handler))
	return nil
}
