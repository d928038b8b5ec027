// Command bautagebuch records construction site measurements, keeps the
// weekly logbook and finds entries that were submitted twice.
package main

import (
	"fmt"
	"os"

	"github.com/okian/bautagebuch/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

func main() {
	// Logs go to stderr so command output on stdout can be piped.
	if err := logger.InitWithWriter(os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		os.Exit(1)
	}
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
