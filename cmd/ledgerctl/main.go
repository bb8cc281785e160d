package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load("configs/.env")
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
