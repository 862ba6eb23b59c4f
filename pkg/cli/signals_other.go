//go:build !unix

package cli

import "os"

var runSignal os.Signal
