package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	rollercmd "github.com/heyztb/cairoroller/internal/cmd/roller"
)

func main() {
	cfg, err := rollercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[ROLLER] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rollercmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to roll: %v", err)
	}
}
