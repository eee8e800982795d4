// Command harvest freezes a source tree and runs a dependency-ordered
// tool pipeline over it.
package main

import (
	"fmt"
	"os"

	"github.com/jra3/harvest/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
