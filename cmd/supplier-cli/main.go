package main

import (
	"fmt"
	"os"

	"github.com/yndnr/supplier-portal/internal/cli/command"
)

func main() {
	app := command.NewApp()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", command.Describe(err))
		os.Exit(command.ExitCode(err))
	}
}
