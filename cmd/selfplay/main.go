package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/logging"
	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/services/tetris"
)

// selfplay は AI のエンジンを固定ステップで回し、結果を表示します。
func main() {
	seed := flag.Int64("seed", 1, "random seed for the piece sequence (0 uses the clock)")
	maxPieces := flag.Int("pieces", 500, "stop after this many locked pieces (0 for no limit)")
	fps := flag.Int("fps", 60, "simulated frames per second")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	if *fps < 1 {
		log.Fatalf("-fps must be positive: %d", *fps)
	}
	logger, err := logging.New("development", *logLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	e := tetris.NewEngine(tetris.EngineConfig{
		Controller: tetris.ControllerAI,
		Seed:       *seed,
		Logger:     logger,
	})
	step := time.Second / time.Duration(*fps)

	start := time.Now()
	var simulated time.Duration
	for !e.IsGameOver() {
		if *maxPieces > 0 && e.GetState().Pieces >= *maxPieces {
			break
		}
		e.Update(step)
		simulated += step
	}
	state := e.GetState()

	fmt.Printf("pieces: %d\n", state.Pieces)
	fmt.Printf("score:  %d\n", state.Score)
	fmt.Printf("lines:  %d\n", state.Lines)
	fmt.Printf("level:  %d\n", state.Level)
	fmt.Printf("sent:   %d\n", state.LinesSent)
	fmt.Printf("over:   %v\n", state.GameOver)
	fmt.Printf("simulated %v in %v\n", simulated.Round(time.Millisecond), time.Since(start).Round(time.Millisecond))
}
