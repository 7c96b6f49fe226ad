package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const (
	releaseVersion = "0.4.0"
	defaultTCPPort = 5556
	defaultUDPPort = 5555
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
		// A second SIGINT/SIGTERM forces an immediate exit rather than
		// waiting on an in-flight round to notice cancellation — mirrors
		// main.c's signal handler, which calls exit(1) if already
		// shutting down.
		<-sig
		os.Exit(1)
	}()

	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).ExecuteContext(ctx))
}
