package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &cli{}
	err := c.rootCmd().ExecuteContext(ctx)
	if cerr := c.close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "grader: shutdown: %v\n", cerr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "grader: %v\n", err)
		stop()
		os.Exit(1)
	}
}
