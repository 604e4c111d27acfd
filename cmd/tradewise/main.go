package main

import (
	"log"
	"os"

	"tradewise/cmd/tradewise/cmd"

	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load .env: %v", err)
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
