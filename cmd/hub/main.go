// Command hub runs the swarmhub coordination service: the embedded NATS
// broadcast bus, the SQLite-backed room store, and the HTTP gateway that
// fronts every project's Room.
package main

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nkern/swarmhub/internal/config"
	"github.com/nkern/swarmhub/internal/gateway"
	"github.com/nkern/swarmhub/internal/natsbus"
	"github.com/nkern/swarmhub/internal/store"
)

var version = "dev"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Println("swarmhub " + version)
		return
	}

	if err := run(); err != nil {
		slog.Error("hub: fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	bus, err := natsbus.New(cfg.NATS)
	if err != nil {
		return fmt.Errorf("start nats: %w", err)
	}
	defer bus.Close()

	nc, err := natsbus.NewClient(bus)
	if err != nil {
		return fmt.Errorf("connect nats client: %w", err)
	}
	defer nc.Close()

	gw := gateway.New(cfg, st, nc)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: gw.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go watchConfigFile(ctx, gw, cfg)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("hub: listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("hub: shutting down")
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

// watchConfigFile polls the config file's content hash and reapplies the
// reloadable subset of config on change or SIGHUP, diffing before reload
// instead of restarting the process wholesale.
func watchConfigFile(ctx context.Context, gw *gateway.Gateway, initial *config.Config) {
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)

	path := config.Path()
	lastHash, _ := hashFile(path)
	current := initial

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	reload := func() {
		hash, err := hashFile(path)
		if err != nil || hash == lastHash {
			return
		}
		lastHash = hash

		next, err := config.Load()
		if err != nil {
			slog.Error("hub: reload config failed", "error", err)
			return
		}
		diff := config.Diff(current, next)
		if len(diff.NonReloadable) > 0 {
			slog.Warn("hub: config changed fields that require a restart", "fields", diff.NonReloadable)
		}
		if diff.RoomChanged {
			gw.SetRoomConfig(next.Room)
		}
		if diff.AuthChanged {
			gw.SetAuthToken(next.HTTP.Token)
		}
		if diff.HasChanges() {
			slog.Info("hub: config reloaded", "path", path)
		}
		current = next
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-sighup:
			reload()
		case <-ticker.C:
			reload()
		}
	}
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum), nil
}
