package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/persona-interview/backend/internal/config"
	"github.com/zhouzirui/persona-interview/backend/internal/handler"
	"github.com/zhouzirui/persona-interview/backend/internal/metrics"
	"github.com/zhouzirui/persona-interview/backend/internal/service/bot"
	"github.com/zhouzirui/persona-interview/backend/internal/service/interview"
	"github.com/zhouzirui/persona-interview/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	factory, err := bot.NewFactoryFromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to prepare interview bots: %v", err)
	}

	counters := metrics.New()
	sessions := session.NewService(func() interview.Bot { return factory.New() }, session.WithMetrics(counters))
	go sessions.RunJanitor(ctx, cfg.Interview.CleanupInterval, cfg.Interview.SessionTTL)

	router := handler.NewRouter(sessions, counters, handler.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ClockInterval:  cfg.Interview.ClockInterval,
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Persona interview backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
