// matchwatch tails a running match from the terminal by polling its
// details endpoint and printing each observed change.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/squizzy-server/internal/domain"
	"github.com/squizzy-server/internal/poller"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "Quiz server base URL")
	slug := flag.String("slug", "", "Match slug to watch")
	interval := flag.Duration("interval", 2*time.Second, "Poll interval")
	raw := flag.Bool("raw", false, "Print raw JSON instead of a summary")
	flag.Parse()

	if *slug == "" {
		log.Fatal("-slug is required")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	p := poller.New(*serverURL, *interval, logger)
	err := p.Watch(ctx, *slug, func(u poller.Update) {
		if *raw {
			fmt.Println(string(u.Body))
			return
		}
		printSummary(u)
	})
	if err != nil && ctx.Err() == nil {
		log.Fatalf("watch failed: %v", err)
	}
}

func printSummary(u poller.Update) {
	var envelope struct {
		Success bool                `json:"success"`
		Data    domain.MatchDetails `json:"data"`
		Error   string              `json:"error"`
	}
	if err := json.Unmarshal(u.Body, &envelope); err != nil || !envelope.Success {
		fmt.Printf("[%s] error response: %s\n", u.FetchedAt.Format("15:04:05"), u.Body)
		return
	}

	d := envelope.Data
	fmt.Printf("[%s] %s status=%s question=%d/%d players=%d answers=%d\n",
		u.FetchedAt.Format("15:04:05"),
		d.Match.Slug,
		d.Match.Status,
		d.Match.CurrentQuestionIndex+1,
		len(d.Questions),
		len(d.Players),
		len(d.Answers),
	)
	for _, mp := range d.Players {
		fmt.Printf("    %-20s %d\n", mp.Name, mp.Score)
	}
}
