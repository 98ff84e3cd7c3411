package recovery

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
)

var (
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// HandlePanic should be deferred at the top of main(). It reports the panic
// with a stack trace and exits with code 1.
func HandlePanic() {
	if r := recover(); r != nil {
		report(r)
		exit(1)
	}
}

// HandlePanicFunc is HandlePanic with a cleanup hook that runs before exit.
func HandlePanicFunc(cleanup func()) {
	if r := recover(); r != nil {
		report(r)
		if cleanup != nil {
			cleanup()
		}
		exit(1)
	}
}

func report(r any) {
	_, _ = fmt.Fprintf(stderr, "FATAL: %v\n\nStack trace:\n%s\n", r, debug.Stack())
}
