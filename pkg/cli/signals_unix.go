//go:build unix

package cli

import (
	"os"
	"syscall"
)

// runSignal asks a running daemon for an immediate retention run.
var runSignal os.Signal = syscall.SIGUSR1
