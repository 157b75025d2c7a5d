// Command alan evaluates plate-structured log-probability trees.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/alan/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
