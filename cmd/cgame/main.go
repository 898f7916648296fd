package main

import (
	"github.com/joho/godotenv"

	"github.com/mcoot/creaturegame/internal/cli"
)

func main() {
	// CGAME_* settings may live in a local .env
	_ = godotenv.Load()

	cli.Execute()
}
