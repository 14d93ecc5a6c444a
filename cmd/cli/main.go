package main

import (
	"fmt"
	"io"
	"os"

	"github.com/vk/hydroprep/internal/cli"
)

// main is the entrypoint for the hydroprep tool.
func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling.
func run(outW io.Writer, args []string) error {
	return cli.Run(outW, args)
}
