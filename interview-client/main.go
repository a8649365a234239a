package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/AtDexters-Lab/nexus-interview/internal/config"
	"github.com/AtDexters-Lab/nexus-interview/internal/conn"
	"github.com/AtDexters-Lab/nexus-interview/internal/iface"
	"github.com/AtDexters-Lab/nexus-interview/internal/interview"
	"github.com/AtDexters-Lab/nexus-interview/internal/session"
)

const renderInterval = 100 * time.Millisecond

func main() {
	// --- 1. Configuration Loading ---
	configPath := flag.String("config", "", "Path to the configuration file. Defaults apply when empty.")
	jobPath := flag.String("job", "job_description.txt", "Path to the job description.")
	resumePath := flag.String("resume", "resume.txt", "Path to the resume.")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("FATAL: Error loading configuration: %v", err)
		}
		cfg = loaded
		log.Printf("INFO: Configuration loaded successfully from %s", *configPath)
	}

	jobDescription, err := os.ReadFile(*jobPath)
	if err != nil {
		log.Fatalf("FATAL: Could not read job description: %v", err)
	}
	resume, err := os.ReadFile(*resumePath)
	if err != nil {
		log.Fatalf("FATAL: Could not read resume: %v", err)
	}

	// --- 2. Client Initialization ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var client *interview.Client
	var startOnce sync.Once
	callbacks := iface.Callbacks{
		OnConnect: func() {
			fmt.Println("Connected to the interview server.")
			startOnce.Do(func() {
				client.StartInterview(string(jobDescription), string(resume))
			})
		},
		OnDisconnect: func() {
			fmt.Println("Disconnected from the interview server.")
		},
		OnError: func(err error) {
			fmt.Printf("Error: %v\n", err)
			if errors.Is(err, conn.ErrReconnectExhausted) {
				cancel()
			}
		},
		OnInterviewStarted: func() {
			fmt.Println("The interview has started. Type your answer and press Enter.")
		},
		OnInterviewComplete: func() {
			fmt.Println("The interview is complete.")
		},
	}
	client = interview.New(cfg, callbacks)
	log.Printf("INFO: Client %s connecting to %s", client.ID(), conn.TargetURL(cfg, client.ID()))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		client.Run(ctx)
	}()
	client.Connect()

	answers := make(chan string)
	go readAnswers(answers)

	// --- 3. Interaction and Graceful Shutdown ---
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(renderInterval)
	defer ticker.Stop()
	shown := 0

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-shutdownChan:
			log.Println("INFO: Shutdown signal received.")
			cancel()
		case answer, ok := <-answers:
			if !ok {
				cancel()
				continue
			}
			if client.Snapshot().Phase.Kind != session.PhaseInProgress {
				fmt.Println("No question is waiting for an answer.")
				continue
			}
			client.SubmitAnswer(answer)
		case <-ticker.C:
			phase := client.Snapshot().Phase
			switch phase.Kind {
			case session.PhaseInProgress:
				if phase.QuestionNumber != shown {
					shown = phase.QuestionNumber
					fmt.Printf("\nQuestion %d: %s\n> ", phase.QuestionNumber, phase.Question)
				}
			case session.PhaseFeedback:
				fmt.Printf("\n%s\n", phase.Feedback)
				cancel()
			}
		}
	}

	// --- 4. Cleanup ---
	wg.Wait()
	log.Println("INFO: Shutdown complete. Goodbye.")
}

// readAnswers sends each non-empty stdin line and closes answers at EOF.
func readAnswers(answers chan<- string) {
	defer close(answers)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			answers <- line
		}
	}
}
