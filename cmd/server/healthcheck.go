package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tkdojang/dojang-api/internal/config"
)

// probeHealth hits the local health endpoint and reports failure through its
// return value. Container HEALTHCHECK directives run the server binary with
// --healthcheck so the image needs no curl or wget.
func probeHealth(cfg *config.Config) error {
	client := &http.Client{Timeout: 5 * time.Second}

	url := fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port)
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
