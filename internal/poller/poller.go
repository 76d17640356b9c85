// Package poller implements the client side of the platform's update
// model: there is no push channel, clients refetch match state on an
// interval and react when it changes.
package poller

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Update is one observed state of the watched match.
type Update struct {
	Body       []byte
	FetchedAt  time.Time
	StatusCode int
}

// Poller refetches a match details endpoint on a fixed interval and
// reports changes. Identical consecutive payloads are suppressed.
type Poller struct {
	client   *http.Client
	baseURL  string
	interval time.Duration
	logger   *slog.Logger
}

// New creates a poller against a server base URL
func New(baseURL string, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  baseURL,
		interval: interval,
		logger:   logger,
	}
}

// Watch polls the match addressed by slug until ctx is cancelled,
// invoking handle for the initial state and every subsequent change.
// Fetch errors are logged and retried on the next tick.
func (p *Poller) Watch(ctx context.Context, slug string, handle func(Update)) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var last []byte
	poll := func() {
		update, err := p.fetch(ctx, slug)
		if err != nil {
			p.logger.Warn("poll failed", "slug", slug, "error", err)
			return
		}
		if bytes.Equal(update.Body, last) {
			return
		}
		last = update.Body
		handle(*update)
	}

	poll()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			poll()
		}
	}
}

func (p *Poller) fetch(ctx context.Context, slug string) (*Update, error) {
	url := fmt.Sprintf("%s/api/v1/matches/%s", p.baseURL, slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching match: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return &Update{
		Body:       body,
		FetchedAt:  time.Now(),
		StatusCode: resp.StatusCode,
	}, nil
}
