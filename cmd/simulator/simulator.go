package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Simulator drives a voice call against a running server: it starts a call
// over HTTP, opens the websocket stream, and plays audio files as turns.
type Simulator struct {
	baseURL string
	log     *zap.Logger

	callID string
	conn   *websocket.Conn

	mu       sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewSimulator(baseURL string, log *zap.Logger) *Simulator {
	return &Simulator{
		baseURL:  strings.TrimRight(baseURL, "/"),
		log:      log,
		stopChan: make(chan struct{}),
	}
}

func (s *Simulator) CallID() string {
	return s.callID
}

// Connect starts a call and dials its websocket stream.
func (s *Simulator) Connect() error {
	callID, streamURL, err := s.startCall()
	if err != nil {
		return err
	}
	s.callID = callID

	wsURL := strings.Replace(s.baseURL, "http", "ws", 1) + streamURL
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial stream: %w", err)
	}
	s.conn = conn

	s.log.Info("Connected to call stream",
		zap.String("url", wsURL),
		zap.String("call_id", callID),
	)

	s.wg.Add(1)
	go s.readResponses()

	return nil
}

// Stop closes the stream and waits for the reader to finish.
func (s *Simulator) Stop() {
	s.mu.Lock()
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	if s.conn != nil {
		s.conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Simulator) startCall() (string, string, error) {
	resp, err := http.Post(s.baseURL+"/api/call/start", "application/json", nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to start call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("start call returned status %d", resp.StatusCode)
	}

	var body struct {
		CallID    string `json:"call_id"`
		StreamURL string `json:"stream_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", fmt.Errorf("failed to decode start call response: %w", err)
	}
	return body.CallID, body.StreamURL, nil
}

// SendAudioFile sends one file as one binary turn.
func (s *Simulator) SendAudioFile(path string) error {
	audio, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read audio file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("not connected")
	}

	s.log.Debug("Sending audio turn",
		zap.String("file", path),
		zap.Int("bytes", len(audio)),
	)
	return s.conn.WriteMessage(websocket.BinaryMessage, audio)
}

func (s *Simulator) readResponses() {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopChan:
			return
		default:
			_, message, err := s.conn.ReadMessage()
			if err != nil {
				select {
				case <-s.stopChan:
				default:
					s.log.Error("Read error", zap.Error(err))
				}
				return
			}
			s.printTurn(message)
		}
	}
}

func (s *Simulator) printTurn(data []byte) {
	var turn struct {
		Transcript   string `json:"transcript"`
		ResponseText string `json:"response_text"`
		Language     string `json:"language"`
		Command      string `json:"command"`
		Order        *struct {
			OrderID int     `json:"order_id"`
			Total   float64 `json:"total"`
			Status  string  `json:"status"`
		} `json:"order"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &turn); err != nil {
		fmt.Printf("<- %s\n", data)
		return
	}

	if turn.Error != "" {
		fmt.Printf("<- error: %s\n", turn.Error)
		return
	}

	if turn.Transcript != "" {
		fmt.Printf("You:   %s\n", turn.Transcript)
	}
	fmt.Printf("Model: %s\n", turn.ResponseText)
	if turn.Order != nil {
		fmt.Printf("Order #%d confirmed, total ₹%.2f (%s)\n",
			turn.Order.OrderID, turn.Order.Total, turn.Order.Status)
	}
}

// RunInteractive runs the simulator in interactive mode
func (s *Simulator) RunInteractive() {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		parts := strings.Fields(line)

		if len(parts) == 0 {
			fmt.Print("> ")
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "send":
			if len(args) < 1 {
				fmt.Println("Usage: send <file>")
			} else if err := s.SendAudioFile(args[0]); err != nil {
				fmt.Printf("Send failed: %v\n", err)
			} else {
				// Give the response a moment to print before the next prompt.
				time.Sleep(500 * time.Millisecond)
			}

		case "call":
			s.Stop()
			s.stopChan = make(chan struct{})
			if err := s.Connect(); err != nil {
				fmt.Printf("Failed to start call: %v\n", err)
			} else {
				fmt.Printf("New call: %s\n", s.callID)
			}

		case "quit", "exit":
			fmt.Println("Goodbye!")
			return

		default:
			fmt.Printf("Unknown command: %s\n", cmd)
		}

		fmt.Print("> ")
	}
}
