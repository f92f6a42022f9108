package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"pod2aria/internal/services"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints the one-line explanation for err. Interrupts were
// already reported by the run command.
func reportError(w io.Writer, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	fmt.Fprintln(w, services.UserMessage(err))
}
