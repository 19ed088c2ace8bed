package main

import (
	"github.com/edulive/classmesh/internal/cli"
	"github.com/edulive/classmesh/internal/logging"
)

func main() {
	// Initialize logging
	logging.Init()
	cli.Execute()
}
