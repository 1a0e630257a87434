package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"nctracker/internal/cli"
)

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		// Command failures were already reported; flag and argument
		// errors from cobra were not.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
