package main

import (
	"log"

	"github.com/MrSnakeDoc/arcade/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ arcade failed to start: %v", err)
	}
}
