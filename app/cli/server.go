package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedhub/app/api"
	"feedhub/app/cfg"
	"feedhub/app/crawler"
)

type ServerCommand struct {
	Host     string `short:"H" long:"host" env:"FEEDHUB_HOST" default:"127.0.0.1" description:"Host the server listens on"`
	Port     string `short:"p" long:"port" env:"FEEDHUB_PORT" default:"4000" description:"Port the server listens on"`
	Username string `short:"u" long:"username" env:"FEEDHUB_USERNAME" description:"Username for basic authentication"`
	Password string `short:"P" long:"password" env:"FEEDHUB_PASSWORD" description:"Password for basic authentication"`
}

// Execute runs the long-lived service: the background crawl loop and the
// management HTTP API side by side. It returns once both have shut down.
func (c *ServerCommand) Execute(args []string) error {
	if (c.Username == "") != (c.Password == "") {
		return errors.New("username and password must be set together")
	}

	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	conf := cfg.Get()

	scheduler := crawler.NewScheduler(app.crawler, app.feeds,
		conf.PollEvery(), conf.TickEvery(), conf.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(app.manager, app.feeds, app.items, scheduler)
	server := api.NewServer(handler, c.Username, c.Password)

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(c.Host, c.Port),
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "addr", httpServer.Addr, "auth", c.Username != "")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("Server started", "version", conf.Version)

	var runErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case runErr = <-serverErrChan:
		slog.Error("Server error", "error", runErr)
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
		if runErr == nil {
			runErr = err
		}
	}

	// Scheduler is stopped via defer; in-flight crawls finish first.
	return runErr
}
