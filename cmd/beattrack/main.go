package main

import (
	"github.com/cwbudde/algo-beat/internal/cli"
	"github.com/cwbudde/algo-beat/internal/recovery"
)

func main() {
	defer recovery.HandlePanic()
	cli.Execute()
}
