package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

var (
	serverURL   = flag.String("server", "http://localhost:8080", "CartTalk server base URL")
	audioFile   = flag.String("audio", "", "Audio file to send as a single turn (webm)")
	turns       = flag.Int("turns", 1, "Number of times to send the audio file")
	interactive = flag.Bool("interactive", false, "Enable interactive mode")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	// Setup logger
	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	simulator := NewSimulator(*serverURL, logger)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down simulator...")
		simulator.Stop()
		os.Exit(0)
	}()

	// Start a call and open the audio stream
	if err := simulator.Connect(); err != nil {
		logger.Fatal("Failed to connect to server", zap.Error(err))
	}
	defer simulator.Stop()

	fmt.Printf("CartTalk call simulator started\n")
	fmt.Printf("  Server: %s\n", *serverURL)
	fmt.Printf("  Call ID: %s\n", simulator.CallID())

	if *interactive {
		runInteractiveMode(simulator)
		return
	}

	if *audioFile == "" {
		fmt.Println("No --audio file given; nothing to send")
		return
	}

	for i := 0; i < *turns; i++ {
		if err := simulator.SendAudioFile(*audioFile); err != nil {
			logger.Fatal("Failed to send audio", zap.Error(err))
		}
	}
}

func runInteractiveMode(sim *Simulator) {
	fmt.Println("\nCartTalk Call Simulator - Interactive Mode")
	fmt.Println("==========================================")
	fmt.Println("Commands:")
	fmt.Println("  send <file>   - Send an audio file as one turn")
	fmt.Println("  call          - Start a fresh call")
	fmt.Println("  quit          - Exit simulator")
	fmt.Println("")

	sim.RunInteractive()
}
