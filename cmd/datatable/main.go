// Command datatable manages the persisted data table from a shell.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/DataTable/internal/cli"
)

func main() {
	// A missing .env file is fine; the environment is used as is.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := cli.New(os.LookupEnv, os.Stdin, os.Stdout, os.Stderr)
	if err := c.Execute(ctx, os.Args[1:]); err != nil {
		stop()
		cli.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
