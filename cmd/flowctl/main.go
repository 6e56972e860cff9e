// Command flowctl inspects saved chatbot flows offline: it validates and
// diffs snapshot files, prints stored flows and issues API tokens.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		if !errors.Is(err, errInvalidFlow) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
