// Command condense extracts a PDF or text file, sends it to the compression
// service and stores the condensed text.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
