// Command weft is the interactive weak-memory ISA interpreter.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/weft/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
