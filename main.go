// Command dupeguard runs a small chat relay that rejects repeated messages
// the way hosted chat platforms do. It is the counterpart the chat client is
// tested against.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nicebartender/dupeguard/db"
	"github.com/nicebartender/dupeguard/rpc"
	"github.com/nicebartender/dupeguard/ws"
)

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(2)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer database.Close()

	hub := ws.NewHub()
	router := rpc.NewRouter(hub, database)
	router.DuplicateWindow = cfg.DuplicateWindow
	router.SetModerators(cfg.Moderators)

	go hub.Run()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           newMux(hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("dupeguard relay starting", "addr", cfg.ListenAddr, "duplicateWindow", cfg.DuplicateWindow)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func newMux(hub *ws.Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/", hub)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}
