package main

import (
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/cli"
)

func main() {
	cli.Execute()
}
