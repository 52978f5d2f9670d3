package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/canva-oauth-relay/internal/config"
	"github.com/jrsteele09/canva-oauth-relay/server"
	"github.com/jrsteele09/canva-oauth-relay/store"
	"github.com/jrsteele09/canva-oauth-relay/upstream"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error running server: %s\n", err)
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	// .env is optional; real deployments configure the environment directly.
	_ = godotenv.Load()

	c := config.Load()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	displayAppname(c.AppName)

	logger := newLogger(c)

	sessions, err := store.NewRedisStore(c.RedisURL, "relay:")
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	defer sessions.Close()

	up, err := upstream.NewClient(upstream.ClientArgs{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
	})
	if err != nil {
		return fmt.Errorf("upstream client: %w", err)
	}

	httpServer := &http.Server{Addr: c.Port, Handler: server.New(c, sessions, up, logger)}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

func newLogger(c config.Config) zerolog.Logger {
	if c.Env == "DEV" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
