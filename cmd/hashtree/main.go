// Command hashtree builds hash trees over files,
// and produces and checks inclusion proofs for their blocks.
package main

import (
	"os"
)

func main() {
	cmd, a := newRootCmd()
	if err := a.execute(cmd); err != nil {
		// Cobra has already printed the error.
		os.Exit(1)
	}
}
