package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"blocknotes/internal/app"
	"blocknotes/internal/config"
	"blocknotes/internal/logger"
)

func main() {
	mcpMode := flag.Bool("mcp", false, "serve MCP on stdin/stdout instead of HTTP")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := app.New(cfg, log)
	if err := a.Startup(ctx); err != nil {
		log.Fatal("startup failed", "error", err)
	}
	defer a.Shutdown(context.Background())

	if *mcpMode {
		err = a.ServeMCP(ctx)
	} else {
		err = a.ServeHTTP(ctx)
	}
	if err != nil {
		log.Error("server stopped", "error", err)
	}
}
