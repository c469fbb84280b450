package main

import (
	"fmt"
	"os"

	"github.com/roach88/sqx/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "sqx:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
