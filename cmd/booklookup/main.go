package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"booklookup/internal/commands"
)

const version = "1.0.0"

func main() {
	root := commands.NewRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
