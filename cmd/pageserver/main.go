package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/shigetaa/node-js5http/internal/reqlog"
	"github.com/shigetaa/node-js5http/internal/router"
	"github.com/shigetaa/node-js5http/internal/server"
)

const port = 3000

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(0)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rec := reqlog.New(os.Stdout, reqlog.DefaultQueueSize)
	if err := server.Run(ctx, port, router.New(router.Pages(), rec), rec); err != nil {
		log.Fatalf("Error running the server: %v", err)
	}
	log.Println("Server gracefully stopped")
}
