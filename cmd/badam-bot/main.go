// Command badam-bot is a headless client that signs in to a running server
// and drives the counter sync protocol over the public API: optimistic
// clicks coalesce into debounced sync writes, with a forced flush before
// sign-out.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strconv"
	"time"

	"badam/internal/badamsync"
)

type client struct {
	baseURL string
	http    *http.Client
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		logger.Error("API_BASE_URL is required")
		os.Exit(1)
	}
	username := envStr("BOT_USERNAME", "badam-bot")
	password := os.Getenv("BOT_PASSWORD")
	if password == "" {
		logger.Error("BOT_PASSWORD is required")
		os.Exit(1)
	}
	clicks := envInt("BOT_CLICKS", 20)
	debounce := time.Duration(envInt("BOT_DEBOUNCE_MS", 10000)) * time.Millisecond
	pace := time.Duration(envInt("BOT_PACE_MS", 500)) * time.Millisecond

	jar, err := cookiejar.New(nil)
	if err != nil {
		logger.Error("cookie jar", "err", err)
		os.Exit(1)
	}
	c := &client{
		baseURL: baseURL,
		http:    &http.Client{Jar: jar, Timeout: 15 * time.Second},
	}

	ctx := context.Background()

	if err := c.signin(ctx, username, password); err != nil {
		logger.Info("signin failed, trying signup", "err", err)
		if err := c.signup(ctx, username, password); err != nil {
			logger.Error("signup", "err", err)
			os.Exit(1)
		}
	}

	baseline, err := c.fetchCount(ctx)
	if err != nil {
		logger.Error("fetch baseline", "err", err)
		os.Exit(1)
	}
	logger.Info("baseline loaded", "count", baseline)

	syncer := badamsync.New(func(ctx context.Context, count int) error {
		return c.syncCount(ctx, count)
	}, debounce)
	syncer.Load(baseline)

	for i := 0; i < clicks; i++ {
		var v int
		if rand.Intn(4) == 0 {
			v = syncer.Decrement()
		} else {
			v = syncer.Increment()
		}
		logger.Info("click", "value", v)
		time.Sleep(pace)
	}

	// Forced flush so no click is lost to debounce latency.
	if err := syncer.Flush(ctx); err != nil {
		logger.Error("final flush", "err", err)
		os.Exit(1)
	}
	logger.Info("flushed", "value", syncer.Value())

	if err := c.signout(ctx); err != nil {
		logger.Warn("signout", "err", err)
	}
}

func (c *client) signin(ctx context.Context, username, password string) error {
	return c.postJSON(ctx, "/api/signin", map[string]string{"username": username, "password": password}, nil)
}

func (c *client) signup(ctx context.Context, username, password string) error {
	return c.postJSON(ctx, "/api/signup", map[string]string{"username": username, "password": password}, nil)
}

func (c *client) signout(ctx context.Context) error {
	return c.postJSON(ctx, "/api/signout", nil, nil)
}

func (c *client) fetchCount(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/badam", nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("GET /api/badam: status %d", resp.StatusCode)
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	return body.Count, nil
}

func (c *client) syncCount(ctx context.Context, count int) error {
	return c.postJSON(ctx, "/api/badam/sync", map[string]int{"count": count}, nil)
}

func (c *client) postJSON(ctx context.Context, path string, payload any, out any) error {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST %s: status %d", path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
