// Package main provides a load generator for the chat WebSocket relay.
//
// Every client logs in as the same user, joins one conversation and sends
// typing indicators; messages are posted over HTTP so the full
// persist-then-publish path is exercised.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Metrics tracks the load run results.
type Metrics struct {
	ConnectionsAttempted atomic.Int64
	ConnectionsSuccess   atomic.Int64
	ConnectionsFailed    atomic.Int64
	Joined               atomic.Int64
	MessagesPosted       atomic.Int64
	FramesSent           atomic.Int64
	FramesReceived       atomic.Int64
	NewMessageFrames     atomic.Int64
	Errors               atomic.Int64
}

var metrics Metrics

var httpClient = &http.Client{Timeout: 5 * time.Second}

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	email := flag.String("email", "demo@example.com", "User email")
	password := flag.String("password", "Password123!", "User password")
	conversationID := flag.Uint("conversation", 0, "Conversation to join (required)")
	clients := flag.Int("clients", 20, "Number of concurrent connections")
	duration := flag.Duration("duration", 30*time.Second, "Run duration")
	interval := flag.Duration("interval", 5*time.Second, "Per-client send interval")
	flag.Parse()

	if *conversationID == 0 {
		fmt.Fprintln(os.Stderr, "usage: chatload -conversation <id> [-host host:port] [-clients n]")
		os.Exit(2)
	}

	log.Printf("Starting chat load against %s with %d clients for %v", *host, *clients, *duration)

	token, err := login(*host, *email, *password)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runClient(*host, token, uint64(*conversationID), i, *interval, stop, &wg)
		time.Sleep(50 * time.Millisecond)
	}

	select {
	case <-time.After(*duration):
		log.Println("Run duration reached")
	case <-interrupt:
		log.Println("Interrupted")
	}

	close(stop)
	wg.Wait()
	printMetrics()
}

func login(host, email, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := httpClient.Post(fmt.Sprintf("http://%s/api/auth/login", host), "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}

func postMessage(host, token string, conversationID uint64, text string) error {
	body, _ := json.Marshal(map[string]string{"text": text})
	req, err := http.NewRequest(http.MethodPost,
		fmt.Sprintf("http://%s/api/conversations/%d/messages", host, conversationID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("send message failed with status %d", resp.StatusCode)
	}
	return nil
}

func runClient(host, token string, conversationID uint64, id int, interval time.Duration, stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	metrics.ConnectionsAttempted.Add(1)

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws/chat", RawQuery: "token=" + url.QueryEscape(token)}
	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		metrics.ConnectionsFailed.Add(1)
		metrics.Errors.Add(1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()
	metrics.ConnectionsSuccess.Add(1)

	go func() {
		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				return
			}
			metrics.FramesReceived.Add(1)
			var frame struct {
				Event string `json:"event"`
			}
			if json.Unmarshal(raw, &frame) != nil {
				continue
			}
			switch frame.Event {
			case "joined":
				metrics.Joined.Add(1)
			case "newMessage":
				metrics.NewMessageFrames.Add(1)
			case "error":
				metrics.Errors.Add(1)
			}
		}
	}()

	send := func(v any) bool {
		if err := c.WriteJSON(v); err != nil {
			metrics.Errors.Add(1)
			return false
		}
		metrics.FramesSent.Add(1)
		return true
	}

	if !send(map[string]any{"type": "joinConversation", "conversationId": conversationID}) {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for tick := 0; ; tick++ {
		select {
		case <-stop:
			_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			if !send(map[string]any{"type": "typing", "conversationId": conversationID, "isTyping": tick%2 == 0}) {
				return
			}
			if err := postMessage(host, token, conversationID, fmt.Sprintf("Load message %d from client %d", tick, id)); err != nil {
				metrics.Errors.Add(1)
				continue
			}
			metrics.MessagesPosted.Add(1)
		}
	}
}

func printMetrics() {
	log.Println("Load results")
	log.Printf("Connections attempted:  %d", metrics.ConnectionsAttempted.Load())
	log.Printf("Connections successful: %d", metrics.ConnectionsSuccess.Load())
	log.Printf("Connections failed:     %d", metrics.ConnectionsFailed.Load())
	log.Printf("Rooms joined:           %d", metrics.Joined.Load())
	log.Printf("Messages posted:        %d", metrics.MessagesPosted.Load())
	log.Printf("Frames sent:            %d", metrics.FramesSent.Load())
	log.Printf("Frames received:        %d", metrics.FramesReceived.Load())
	log.Printf("newMessage frames:      %d", metrics.NewMessageFrames.Load())
	log.Printf("Errors:                 %d", metrics.Errors.Load())
}
