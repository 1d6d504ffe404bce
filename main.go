// Package main is the entry point for the sift application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/billie-coop/sift/internal/remote"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if h := hint(err); h != "" {
			fmt.Fprintln(os.Stderr, h)
		}
		os.Exit(1)
	}
}

// hint suggests a next step for errors the user can fix.
func hint(err error) string {
	switch {
	case remote.IsAuth(err), errors.Is(err, errNotLoggedIn):
		return "Log in again with: sift login <username>"
	case errors.Is(err, context.Canceled):
		return ""
	case remote.IsRequest(err) && remote.StatusOf(err) == 0:
		return "Is the service running? Check its address with: sift config get api_url"
	}
	return ""
}
