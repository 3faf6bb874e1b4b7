package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kml-relay/internal/config"
	"kml-relay/internal/discovery"
	"kml-relay/internal/log"
	"kml-relay/internal/storage"
	"kml-relay/web/handler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	log.SetLevel(log.ParseLevel(cfg.LogLevel))

	// 1. Ensure storage root exists
	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		log.Fatalf("Error creating upload directory: %v", err)
	}
	store := storage.New(cfg.UploadDir)

	// 2. Pick how the public base URL is found
	var resolver discovery.Resolver
	if cfg.PublicBaseURL != "" {
		resolver = discovery.Static(cfg.PublicBaseURL)
		log.Infof("Public base URL fixed to %s", cfg.PublicBaseURL)
	} else {
		agent := discovery.NewAgentResolver(cfg.TunnelPort, &http.Client{Timeout: cfg.TunnelTimeout})
		resolver = agent
		log.Infof("Public base URL from %s", agent.Endpoint())
	}

	h := handler.FromConfig(cfg, store, resolver)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler.Wrap(handler.NewRouter(h)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Infof("Server is running at http://localhost:%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP shutdown error: %v", err)
	}
}
