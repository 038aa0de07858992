// Package main starts the members gRPC service process lifecycle.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	memberscmd "github.com/louisbranch/roster/internal/cmd/members"
)

func main() {
	cfg, err := memberscmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[MEMBERS] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := memberscmd.Run(ctx, cfg, memberscmd.Options{}); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
