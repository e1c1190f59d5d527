// Package check implements the fatal-error path for programming-contract
// violations.
//
// The graph store distinguishes two failure classes: bad input data is
// reported as a recoverable error (see pkg/errors), while caller misuse that
// would leave a graph structurally inconsistent (using an uninitialized
// store, initializing a store twice, passing a NodeID from a different graph
// instance) terminates the process. Continuing past such a violation risks
// emitting a structurally invalid export, so there is no recovery hook.
package check

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

// exit is overridable so the fatal path can be observed in tests.
var exit = os.Exit

// That terminates the process when cond is false.
func That(cond bool, msg string) {
	if !cond {
		fail(msg)
	}
}

// Thatf is That with a formatted message.
func Thatf(cond bool, format string, args ...any) {
	if !cond {
		fail(fmt.Sprintf(format, args...))
	}
}

// Failf unconditionally reports a contract violation and terminates the
// process.
func Failf(format string, args ...any) {
	fail(fmt.Sprintf(format, args...))
}

func fail(msg string) {
	log.Error(msg, "fatal", true)
	exit(1)
}
