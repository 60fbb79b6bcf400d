// cmd/laempli/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

// exitRestart asks the supervisor to start the lamp again.
const exitRestart = 3

func main() {
	os.Exit(run())
}

func run() (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "FATAL: unrecovered panic: %v\n", r)
			exitCode = 2
		}
	}()

	root := &cobra.Command{
		Use:           "laempli",
		Short:         "CI status lamp client",
		Long:          "laempli keeps a connection to the tschenggins status backend and drives\nthe lamp indicator and sounds from the job states it streams.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}
	root.AddCommand(runCmd(), checkCmd(), replayCmd())

	if err := root.Execute(); err != nil {
		if err == errRestart {
			return exitRestart
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
