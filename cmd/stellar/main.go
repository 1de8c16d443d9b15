package main

import (
	"log"

	"github.com/stellarlink/stellar/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ stellar failed to start: %v", err)
	}
}
