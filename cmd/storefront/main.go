// Package main implements the SSH server that serves the storefront TUI.
package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	wishlogging "github.com/charmbracelet/wish/logging"

	"github.com/thomas/kram-terminal-go/internal/auth"
	"github.com/thomas/kram-terminal-go/internal/catalogio"
	"github.com/thomas/kram-terminal-go/internal/config"
	"github.com/thomas/kram-terminal-go/internal/httpapi"
	"github.com/thomas/kram-terminal-go/internal/logging"
	"github.com/thomas/kram-terminal-go/internal/novaposhta"
	"github.com/thomas/kram-terminal-go/internal/shipping"
	"github.com/thomas/kram-terminal-go/internal/shop"
	"github.com/thomas/kram-terminal-go/internal/tui"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", "err", err)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)

	// Ensure host key exists
	created, err := auth.EnsureHostKey(cfg.SSHHostKeyPath)
	if err != nil {
		logger.Fatal("Failed to ensure host key", "err", err)
	}
	if created {
		logger.Info("Generated new ED25519 host key", "path", cfg.SSHHostKeyPath)
	}

	// Load allowlist if in allowlist mode
	var allowlist *auth.Allowlist
	if cfg.SSHAuthMode == config.AuthModeAllowlist {
		allowlist, err = auth.LoadAllowlist(cfg.AllowlistPath)
		if err != nil {
			if errors.Is(err, auth.ErrAllowlistNotFound) {
				logger.Info("Creating empty allowlist", "path", cfg.AllowlistPath)
				if err := auth.CreateEmptyAllowlist(cfg.AllowlistPath); err != nil {
					logger.Fatal("Failed to create allowlist", "err", err)
				}
				logger.Info("Please add your SSH public key to the allowlist and restart")
				os.Exit(1)
			}
			logger.Fatal("Failed to load allowlist", "err", err)
		}
		if allowlist.Len() == 0 {
			logger.Warn("Allowlist is empty, no connections will be accepted", "path", cfg.AllowlistPath)
		}
		if skipped := allowlist.Skipped(); len(skipped) > 0 {
			logger.Warn("Skipped unparsable allowlist lines", "lines", skipped)
		}
		logger.Info("Loaded allowlist", "keys", allowlist.Len())
	} else {
		logger.Warn("Running in PUBLIC mode, anyone can connect. This is NOT safe for internet-facing servers.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if allowlist != nil {
		go reloadOnHangup(ctx, allowlist, logger)
	}

	// Shipping directory
	if cfg.NPAPIKey == "" {
		logger.Warn("NP_API_KEY is not set; the shipping API may reject lookups")
	}
	npClient := novaposhta.NewClient(cfg.NPBaseURL,
		novaposhta.WithAPIKey(cfg.NPAPIKey),
		novaposhta.WithTimeout(cfg.NPTimeout),
	)
	directory := shipping.NewDirectory(npClient, cfg.CacheTTL, logging.Component(logger, "shipping"))
	go directory.RunJanitor(ctx, cfg.CacheTTL)

	// Shared catalog
	catalog := shop.NewCatalog(shop.WithPlaceholderImage(cfg.PlaceholderImageURL))
	if cfg.CatalogSeedPath != "" {
		if err := seedCatalog(catalog, cfg.CatalogSeedPath, logger); err != nil {
			logger.Fatal("Failed to seed catalog", "path", cfg.CatalogSeedPath, "err", err)
		}
	}

	// Admin HTTP API
	if cfg.HTTPAddr != "" {
		api := httpapi.New(catalog,
			httpapi.WithAPIKey(cfg.HTTPAPIKey),
			httpapi.WithLogger(logging.Component(logger, "http")),
		)
		if cfg.HTTPAPIKey == "" {
			logger.Warn("HTTP_API_KEY is not set; catalog mutations are open")
		}
		go func() {
			logger.Info("Starting HTTP API", "addr", cfg.HTTPAddr)
			if err := api.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
				logger.Error("HTTP API stopped", "err", err)
			}
		}()
	}

	sessionLogger := logging.Component(logger, "session")

	// Create SSH server options
	opts := []ssh.Option{
		wish.WithAddress(cfg.SSHAddr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				m := tui.NewModel(s.Context(), catalog, directory, sessionLogger.With("user", s.User()))
				go func() {
					<-s.Context().Done()
					m.Close()
				}()
				return m, []tea.ProgramOption{tea.WithAltScreen()}
			}),
			activeterm.Middleware(),
			wishlogging.MiddlewareWithLogger(logging.Component(logger, "ssh")),
		),
	}

	// Add authentication based on mode
	if allowlist != nil {
		opts = append(opts, wish.WithPublicKeyAuth(func(ctx ssh.Context, key ssh.PublicKey) bool {
			return allowlist.Allows(key)
		}))
	} else {
		opts = append(opts, wish.WithPublicKeyAuth(func(ctx ssh.Context, key ssh.PublicKey) bool {
			return true
		}))
	}

	// Always disable password auth
	opts = append(opts, wish.WithPasswordAuth(func(ctx ssh.Context, password string) bool {
		return false
	}))

	server, err := wish.NewServer(opts...)
	if err != nil {
		logger.Fatal("Failed to create SSH server", "err", err)
	}

	_, port, _ := net.SplitHostPort(cfg.SSHAddr)
	logger.Info("Starting SSH server",
		"addr", cfg.SSHAddr,
		"auth", cfg.SSHAuthMode,
		"shipping", cfg.NPBaseURL,
		"products", catalog.Len())
	logger.Info("Connect with: ssh -p " + port + " localhost")

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Fatal("Server error", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Shutdown error", "err", err)
	}
	stats := directory.Stats()
	logger.Info("Shipping cache", "hits", stats.Hits, "misses", stats.Misses, "loads", stats.Loads)
}

// seedCatalog imports the products of an exported workbook.
func seedCatalog(catalog *shop.Catalog, path string, logger *log.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	report, err := catalogio.Import(f, catalog)
	if err != nil {
		return err
	}
	for _, failure := range report.Failed {
		logger.Warn("Skipped catalog row", "row", failure.Line, "err", failure.Err)
	}
	logger.Info("Seeded catalog", "path", path, "added", report.Added, "failed", len(report.Failed))
	return nil
}

// reloadOnHangup re-reads the allowlist on SIGHUP.
func reloadOnHangup(ctx context.Context, allowlist *auth.Allowlist, logger *log.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := allowlist.Reload(); err != nil {
				logger.Error("Failed to reload allowlist, keeping previous keys", "err", err)
				continue
			}
			logger.Info("Reloaded allowlist", "keys", allowlist.Len())
		}
	}
}
