// answer-producer is a load tool: it discovers a match's questions from
// the HTTP API and floods the answers topic with randomized submissions.
// Because scoring is idempotent per (match, player, question), it can be
// run repeatedly against the same match without inflating scores.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/squizzy-server/internal/domain"
)

var playerPrefixes = []string{
	"Phoenix", "Shadow", "Thunder", "Storm", "Blaze", "Ninja", "Dragon", "Wolf", "Hawk", "Viper",
	"Ghost", "Titan", "Frost", "Cyber", "Nova", "Raven", "Omega", "Alpha", "Delta", "Sigma",
}

func getPlayerName(idx int) string {
	prefixIdx := idx % len(playerPrefixes)
	suffix := idx/len(playerPrefixes) + 1
	return fmt.Sprintf("%s%d", playerPrefixes[prefixIdx], suffix)
}

func fetchQuestions(serverURL, slug string) ([]domain.Question, error) {
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/matches/%s", serverURL, slug))
	if err != nil {
		return nil, fmt.Errorf("fetching match details: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching match details: status %d", resp.StatusCode)
	}

	var envelope struct {
		Success bool                `json:"success"`
		Data    domain.MatchDetails `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding match details: %w", err)
	}
	return envelope.Data.Questions, nil
}

func joinPlayer(serverURL, slug, playerID, name string) error {
	body, _ := json.Marshal(domain.JoinMatchRequest{
		PlayerID:  playerID,
		Name:      name,
		MatchSlug: slug,
	})
	resp, err := http.Post(serverURL+"/api/v1/players", "application/json", strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("join returned status %d", resp.StatusCode)
	}
	return nil
}

func main() {
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "match-answers", "Kafka topic")
	serverURL := flag.String("server", "http://localhost:8080", "Quiz server base URL")
	slug := flag.String("slug", "", "Match slug to submit answers for")
	totalPlayers := flag.Int("players", 50, "Number of players to simulate")
	rate := flag.Int("rate", 100, "Submissions per second")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	flag.Parse()

	if *slug == "" {
		log.Fatal("-slug is required")
	}

	brokerList := strings.Split(*brokers, ",")

	fmt.Println("Answer producer")
	fmt.Printf("  Brokers:  %s\n", *brokers)
	fmt.Printf("  Topic:    %s\n", *topic)
	fmt.Printf("  Match:    %s\n", *slug)
	fmt.Printf("  Players:  %d\n", *totalPlayers)
	fmt.Printf("  Rate:     %d/sec\n", *rate)
	fmt.Println()

	questions, err := fetchQuestions(*serverURL, *slug)
	if err != nil {
		log.Fatalf("Failed to discover questions: %v", err)
	}
	if len(questions) == 0 {
		log.Fatal("Match has no questions to answer")
	}
	fmt.Printf("Discovered %d questions\n", len(questions))

	// Register the simulated players so their submissions score.
	playerIDs := make([]string, *totalPlayers)
	for i := range playerIDs {
		playerIDs[i] = uuid.NewString()
		if err := joinPlayer(*serverURL, *slug, playerIDs[i], getPlayerName(i)); err != nil {
			log.Fatalf("Failed to join player %s: %v", getPlayerName(i), err)
		}
	}
	fmt.Printf("Joined %d players\n\n", *totalPlayers)

	// Configure Sarama producer
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Flush.Messages = 100
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(brokerList, config)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}
	defer producer.Close()

	var successCount, errorCount int64
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("Producer error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})

	sendSubmission := func(submission domain.AnswerSubmission) {
		data, err := json.Marshal(submission)
		if err != nil {
			log.Printf("Failed to marshal message: %v", err)
			return
		}
		msg := &sarama.ProducerMessage{
			Topic: *topic,
			// Keyed by player so one player's resubmissions stay ordered.
			Key:   sarama.StringEncoder(submission.PlayerID),
			Value: sarama.ByteEncoder(data),
		}
		select {
		case producer.Input() <- msg:
		case <-done:
		}
	}

	shutdown := func() {
		close(done)
		producer.AsyncClose()
		wg.Wait()
		fmt.Printf("\nCompleted. Sent: %d, Errors: %d\n",
			atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
	}

	fmt.Println("Producing answers, press Ctrl+C to stop")

	interval := time.Second / time.Duration(*rate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	var endTime time.Time
	if *duration > 0 {
		endTime = time.Now().Add(*duration)
	}

	var sentCount int64
	for {
		select {
		case <-sigChan:
			fmt.Println("\nShutting down...")
			shutdown()
			return

		case <-ticker.C:
			if *duration > 0 && time.Now().After(endTime) {
				fmt.Println("\nDuration reached, shutting down...")
				shutdown()
				return
			}

			question := questions[rand.Intn(len(questions))]
			if len(question.Choices) == 0 {
				continue
			}
			choice := question.Choices[rand.Intn(len(question.Choices))]

			sendSubmission(domain.AnswerSubmission{
				PlayerID:   playerIDs[rand.Intn(len(playerIDs))],
				MatchSlug:  *slug,
				QuestionID: question.ID,
				ChoiceID:   choice.ID,
			})
			atomic.AddInt64(&sentCount, 1)

		case <-statsTicker.C:
			fmt.Printf("[%s] Produced: %d | Acked: %d | Errors: %d\n",
				time.Now().Format("15:04:05"),
				atomic.LoadInt64(&sentCount),
				atomic.LoadInt64(&successCount),
				atomic.LoadInt64(&errorCount),
			)
		}
	}
}
