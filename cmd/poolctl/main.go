// Command poolctl inspects and edits the target pool of a running proxy
// through its admin API.
package main

import (
	"os"
)

func main() {
	cmd := NewCommand(os.Stdout)
	if err := cmd.Run(os.Args); err != nil {
		cmd.printError(err)
		os.Exit(1)
	}
}
