// Command healthcheck probes the status API of a running baron process. It is
// meant for container health checks and exits 0 only on a healthy response.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
)

func main() {
	os.Exit(check(os.Getenv("BARON_LISTEN_ADDR")))
}

func check(listenAddr string) int {
	if listenAddr == "" {
		fmt.Fprintln(os.Stderr, "BARON_LISTEN_ADDR is empty, status API is disabled")
		return 1
	}
	addr := normalizeAddr(listenAddr)

	client := &http.Client{Timeout: 2 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s/api/v1/health", addr), nil)
	if err != nil {
		return 1
	}

	resp, err := client.Do(req)
	if err != nil {
		return 1
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 1
	}

	return 0
}

// normalizeAddr makes the probe dial loopback when baron binds every
// interface. The probe runs in the same container, so loopback is reachable.
func normalizeAddr(raw string) string {
	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return raw
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}

	return net.JoinHostPort(host, port)
}
