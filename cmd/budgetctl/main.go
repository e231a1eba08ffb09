package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketledger/budget-engine/budget"
	"github.com/pocketledger/budget-engine/cli"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(version)
	if err := app.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		switch {
		case budget.IsNotFound(err):
			os.Exit(3)
		case budget.IsClientError(err):
			os.Exit(2)
		}
		os.Exit(1)
	}
}
