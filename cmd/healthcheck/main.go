// Command healthcheck checks a running trendpanel's health endpoint and exits
// non-zero when it is unreachable or unhealthy. It is meant for container
// HEALTHCHECK directives, where no shell or curl is available.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
)

const (
	defaultAddr = "127.0.0.1:8080"
	pingTimeout = 2 * time.Second
)

var errUnhealthy = errors.New("unhealthy")

func main() {
	if err := ping(normalizeAddr(os.Getenv("TRENDPANEL_LISTEN_ADDR"))); err != nil {
		fmt.Fprintln(os.Stderr, "healthcheck:", err)
		os.Exit(1)
	}
}

// check maps ping's result to a process exit code.
func check(addr string) int {
	if ping(addr) != nil {
		return 1
	}
	return 0
}

func ping(addr string) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	url := "http://" + addr + "/api/v1/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", errUnhealthy, resp.StatusCode)
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("decode health: %w", err)
	}
	if health.Status != "ok" {
		return fmt.Errorf("%w: status %q", errUnhealthy, health.Status)
	}
	return nil
}

// normalizeAddr turns a listen address into one the check can dial. Wildcard
// hosts become loopback since the check runs next to the server.
func normalizeAddr(raw string) string {
	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return defaultAddr
	}

	switch host {
	case "", "0.0.0.0":
		host = "127.0.0.1"
	case "::":
		host = "::1"
	}
	return net.JoinHostPort(host, port)
}
