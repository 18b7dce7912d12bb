package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/relscope/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Formatter-produced errors already wrote their payload; anything
		// else (flag errors, load failures) surfaces here.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) || exitErr.Err != nil {
			fmt.Fprintf(os.Stderr, "relscope: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
