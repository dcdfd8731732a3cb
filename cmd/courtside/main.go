package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"

	"github.com/ayusman/courtside/internal/app"
	"github.com/ayusman/courtside/internal/capture"
	"github.com/ayusman/courtside/internal/config"
	"github.com/ayusman/courtside/internal/detector"
	"github.com/ayusman/courtside/internal/emitter"
	"github.com/ayusman/courtside/internal/hook"
	"github.com/ayusman/courtside/internal/metrics"
	"github.com/ayusman/courtside/internal/report"
	"github.com/ayusman/courtside/internal/server"
	"github.com/ayusman/courtside/internal/store"
	"github.com/ayusman/courtside/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (default ~/.courtside/config.yaml if present)")
	logLevel := flag.String("log-level", "", "Override the configured log level (debug, info, warn, error)")
	addr := flag.String("addr", "", "Override the HTTP listen address")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "courtside: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "courtside: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(cfg); err != nil {
		slog.Error("courtside stopped", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads path, or the default config file when path is empty.
// A missing default file means the built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	path = filepath.Join(config.DataDir(), "config.yaml")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return config.Load(path)
}

func run(cfg *config.Config) error {
	slog.Info("starting courtside", "addr", cfg.Server.Addr, "log_level", cfg.LogLevel)

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	src, finite, err := capture.FromConfig(cfg.Camera)
	if err != nil {
		return fmt.Errorf("frame source: %w", err)
	}
	poseDet, ballDet, err := detector.FromConfig(cfg.Detector)
	if err != nil {
		src.Close()
		return err
	}

	a, err := app.New(app.Config{
		Source:     src,
		Pose:       poseDet,
		Ball:       ballDet,
		Store:      st,
		Thresholds: cfg.Thresholds(),
		Preview:    true,
		Pace:       finite,
	})
	if err != nil {
		src.Close()
		poseDet.Close()
		ballDet.Close()
		return err
	}
	defer a.Close()

	hub := server.NewHub()
	rec := report.NewRecorder()
	m := metrics.New(a.Stats)
	a.AddListener(hub)
	a.AddListener(rec)
	a.AddListener(m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MQTT.Broker != "" {
		em := emitter.NewMQTTEmitter(cfg.MQTT)
		if err := em.Connect(ctx); err != nil {
			slog.Warn("mqtt disabled", "error", err)
		} else {
			defer em.Disconnect()
			a.AddListener(em)
		}
	}

	if cfg.Hooks.Dir != "" {
		manager := hook.NewManager(cfg.Hooks.Dir)
		if err := manager.Discover(); err != nil {
			slog.Warn("hooks disabled", "error", err)
		} else {
			runner := hook.NewRunner(manager, hook.NewExecutor(cfg.Hooks.Timeout()))
			defer runner.Close()
			a.AddListener(runner)
			slog.Info("hooks loaded", "dir", manager.Dir(), "count", len(manager.List()))
		}
	}

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		slog.Info("serving static files", "dir", staticDir)
	}
	srv := server.New(server.Config{
		StaticDir: staticDir,
		Store:     st,
		Session:   a,
		Preview:   a,
		Hub:       hub,
		Report:    rec,
		Metrics:   m.Handler(),
	})

	var wg sync.WaitGroup
	errChan := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errChan <- srv.Run(ctx, cfg.Server.Addr)
	}()
	go func() {
		defer wg.Done()
		errChan <- a.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var t *tray.Tray
	if cfg.Tray {
		t = newTray(a, cfg.Server.Addr, cancel)
		a.AddListener(t)
	}

	wait := func() error {
		select {
		case sig := <-sigChan:
			slog.Info("received shutdown signal", "signal", sig)
			return nil
		case <-ctx.Done():
			return nil
		case err := <-errChan:
			return err
		}
	}

	var runErr error
	if t != nil {
		// The tray loop must own the main thread.
		done := make(chan error, 1)
		go func() {
			done <- wait()
			cancel()
			t.Quit()
		}()
		t.Run()
		cancel()
		runErr = <-done
	} else {
		runErr = wait()
	}
	cancel()
	wg.Wait()

	if a.SessionActive() {
		if _, err := a.FinishSession(); err != nil {
			slog.Warn("finish session on shutdown", "error", err)
		}
	}

	slog.Info("courtside stopped")
	return runErr
}

func newTray(a *app.App, addr string, cancel context.CancelFunc) *tray.Tray {
	t := tray.New()
	t.OnStart(func() {
		if _, err := a.StartSession(""); err != nil {
			slog.Warn("start session from tray", "error", err)
		}
	})
	t.OnEnd(func() {
		if _, err := a.FinishSession(); err != nil {
			slog.Warn("finish session from tray", "error", err)
		}
	})
	t.OnOpen(func() {
		if err := openBrowser(dashboardURL(addr)); err != nil {
			slog.Warn("open dashboard", "error", err)
		}
	})
	t.OnQuit(cancel)
	return t
}

func dashboardURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.courtside/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeWebDir := filepath.Join(config.DataDir(), "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
