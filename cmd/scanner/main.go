package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorMessage(err))
		stop()
		os.Exit(1)
	}
}

// errorMessage renders a fatal error for the terminal
func errorMessage(err error) string {
	if errors.Is(err, errMissingCredentials) {
		return "ERROR: Set AMADEUS_CLIENT_ID and AMADEUS_CLIENT_SECRET env vars."
	}
	return "ERROR: " + err.Error()
}
