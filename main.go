// The main package for the bookcrawler executable.
package main

import (
	"github.com/joho/godotenv"

	"github.com/Aurelien-L/bookcrawler/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	// Optional .env for local development; deployments set BOOKS_* directly.
	_ = godotenv.Load()
	cmd.Execute()
}
