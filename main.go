package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gmarchetti/dimmi/internal/config"
	"github.com/gmarchetti/dimmi/internal/database"
	"github.com/gmarchetti/dimmi/internal/gcal"
	"github.com/gmarchetti/dimmi/internal/gemini"
	"github.com/gmarchetti/dimmi/internal/parser"
	"github.com/gmarchetti/dimmi/internal/pattern"
	"github.com/gmarchetti/dimmi/internal/server"
)

func main() {
	cfg := config.LoadFromEnv()

	db, err := database.New(cfg.DBPath)
	if err != nil {
		fatal("creating database", err)
	}
	defer db.Close()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: unknown timezone %q, using UTC\n", cfg.Timezone)
		loc = time.UTC
	}
	now := func() time.Time { return time.Now().In(loc) }

	facade := initParser(cfg, now)
	calClient := initCalendar(cfg)

	srv := server.New(server.Config{
		DB:         db,
		Facade:     facade,
		Cal:        calClient,
		Generative: cfg.GeminiAPIKey != "",
		Port:       cfg.HTTPPort,
		Now:        now,
	})
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "HTTP server error: %v\n", err)
		}
	}()

	waitForShutdown(srv)
}

func initParser(cfg *config.Config, now func() time.Time) *parser.Facade {
	parserCfg, err := config.LoadParserConfig(cfg.ParserConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	deterministic := pattern.New(parserCfg, now)

	var generative parser.Extractor
	if cfg.GeminiAPIKey != "" {
		client := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTemperature)
		generative = gemini.NewParser(client, parserCfg, now)
		fmt.Println("Generative parser configured")
	} else {
		fmt.Println("Warning: GEMINI_API_KEY not set, using deterministic parser only")
	}

	selector := parser.NewSelector(deterministic, generative, parser.Config{
		DeterministicOnly:   cfg.DeterministicOnly,
		PreferDeterministic: cfg.PreferDeterministic,
		FallbackEnabled:     cfg.FallbackEnabled,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
	})
	return parser.NewFacade(selector, now)
}

func initCalendar(cfg *config.Config) *gcal.Client {
	client, err := gcal.NewClient(cfg.GoogleCredentialsFile, cfg.GoogleTokenFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: calendar store unavailable: %v\n", err)
		return nil
	}
	if client.IsAuthenticated() {
		fmt.Println("Calendar store connected")
	} else {
		fmt.Println("Warning: calendar token missing or expired, execution disabled until re-auth")
	}
	return client
}

func waitForShutdown(srv *server.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "HTTP server shutdown error: %v\n", err)
	}
}

func fatal(action string, err error) {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", action, err)
	os.Exit(1)
}
